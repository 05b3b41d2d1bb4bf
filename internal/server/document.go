package server

import (
	"encoding/xml"
	"fmt"

	"github.com/muurk/gogogate/internal/device"
)

type errorResponse struct {
	XMLName xml.Name  `xml:"response"`
	Error   errorBody `xml:"error"`
}

type errorBody struct {
	Code    int    `xml:"errorcode"`
	Message string `xml:"errormsg"`
}

type infoResponse struct {
	XMLName             xml.Name `xml:"response"`
	User                string   `xml:"user"`
	Lang                string   `xml:"lang,omitempty"`
	Pin                 string   `xml:"pin,omitempty"`
	GogoGateName        *string  `xml:"gogogatename"`
	ISmartGateName      *string  `xml:"ismartgatename"`
	Model               string   `xml:"model"`
	APIVersion          string   `xml:"apiversion"`
	RemoteAccessEnabled string   `xml:"remoteaccessenabled"`
	RemoteAccess        string   `xml:"remoteaccess"`
	FirmwareVersion     string   `xml:"firmwareversion"`
	APICode             string   `xml:"apicode,omitempty"`
	NewFirmware         string   `xml:"newfirmware,omitempty"`
	Doors               []doorResponse
	Outputs             *outputsResponse `xml:"outputs"`
	Network             struct {
		IP string `xml:"ip"`
	} `xml:"network"`
	Wifi struct {
		SSID        string `xml:"SSID"`
		LinkQuality string `xml:"linkquality"`
		Signal      string `xml:"signal"`
	} `xml:"wifi"`
}

// doorResponse is rendered under its XMLName, door1 and up
type doorResponse struct {
	XMLName     xml.Name
	Enabled     string `xml:"enabled,omitempty"`
	APICode     string `xml:"apicode,omitempty"`
	CustomImage string `xml:"customimage,omitempty"`
	Permission  string `xml:"permission"`
	Name        string `xml:"name"`
	Gate        string `xml:"gate"`
	Mode        string `xml:"mode"`
	Status      string `xml:"status"`
	Sensor      string `xml:"sensor"`
	SensorID    string `xml:"sensorid"`
	Camera      string `xml:"camera"`
	Events      string `xml:"events"`
	Temperature string `xml:"temperature"`
	Voltage     string `xml:"voltage"`
}

type outputsResponse struct {
	Output1 string `xml:"output1"`
	Output2 string `xml:"output2"`
	Output3 string `xml:"output3"`
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// infoDocument renders the current state. The caller holds mu.
func (h *Hub) infoDocument() string {
	name := h.name
	doc := infoResponse{
		User:                h.username,
		APIVersion:          "1.3",
		RemoteAccessEnabled: "0",
		RemoteAccess:        "abcdefg12345.my-gogogate.com",
	}
	doc.Network.IP = "127.0.0.1"
	doc.Wifi.SSID = "Wifi network"
	doc.Wifi.LinkQuality = "80%"
	doc.Wifi.Signal = "20"

	iSmartGate := h.family == device.FamilyISmartGate
	if iSmartGate {
		doc.ISmartGateName = &name
		doc.Model = "ISG"
		doc.FirmwareVersion = "1.5.9"
		doc.Pin = "123"
		doc.Lang = "en"
		doc.NewFirmware = "no"
	} else {
		doc.GogoGateName = &name
		doc.Model = "GG2"
		doc.FirmwareVersion = "761"
		doc.APICode = h.apiCode
		doc.Outputs = &outputsResponse{Output1: "off", Output2: "off", Output3: "off"}
	}

	for i, d := range h.doors {
		door := doorResponse{
			XMLName:     xml.Name{Local: fmt.Sprintf("door%d", i+1)},
			Permission:  "yes",
			Name:        d.Name,
			Gate:        "no",
			Mode:        d.Mode,
			Status:      d.Status,
			Sensor:      yesNo(d.Temperature != ""),
			Camera:      "no",
			Temperature: d.Temperature,
			Voltage:     d.Voltage,
		}
		if door.Sensor == "yes" {
			door.SensorID = fmt.Sprintf("sensor%d", i+1)
		}
		if iSmartGate {
			door.Enabled = yesNo(d.Name != "")
			door.APICode = d.APICode
			door.CustomImage = "no"
		}
		doc.Doors = append(doc.Doors, door)
	}

	out, err := xml.MarshalIndent(doc, "", "\t")
	if err != nil {
		return ""
	}
	return xml.Header + string(out) + "\n"
}
