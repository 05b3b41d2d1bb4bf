package protocol

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/muurk/gogogate/internal/device"
)

// APIPath is the only endpoint the hub exposes for the local API.
const APIPath = "/api.php"

// Option selects what a command asks the hub to do.
type Option string

const (
	OptionInfo     Option = "info"
	OptionActivate Option = "activate"
)

// Command is the plaintext request sent inside the data parameter.
type Command struct {
	Username string
	Password string
	Option   Option
	Arg1     string
	Arg2     string
}

// InfoCommand builds a status query.
func InfoCommand(creds device.Credentials) Command {
	return Command{Username: creds.Username, Password: creds.Password, Option: OptionInfo}
}

// ActivateCommand builds a toggle for one door. deviceCode is the api code
// the hub reported for that door (or for the whole hub on GogoGate2).
func ActivateCommand(creds device.Credentials, door int, deviceCode string) Command {
	return Command{
		Username: creds.Username,
		Password: creds.Password,
		Option:   OptionActivate,
		Arg1:     strconv.Itoa(door),
		Arg2:     deviceCode,
	}
}

// Encode serialises the command as the hub expects it: a five element
// JSON array with ", " separators and every non-printable or non-ASCII
// character escaped. The result is always pure ASCII.
func (c Command) Encode() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range []string{c.Username, c.Password, string(c.Option), c.Arg1, c.Arg2} {
		if i > 0 {
			b.WriteString(", ")
		}
		writeJSONString(&b, s)
	}
	b.WriteByte(']')
	return b.String()
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				b.WriteRune(r)
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				fmt.Fprintf(b, `\u%04x\u%04x`, hi, lo)
			default:
				fmt.Fprintf(b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
}

// APIURL returns the endpoint URL for a host. A host that already carries
// a scheme is used as is.
func APIURL(host string) string {
	host = strings.TrimRight(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + APIPath
	}
	return "http://" + host + APIPath
}
