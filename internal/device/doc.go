// Package device holds the typed model of a gate hub's reported state.
//
// Values in this package are produced by decoding a single device response
// and are never cached or shared between calls. Two hub families exist
// (GogoGate2 and iSmartGate); both decode into the same Info and Door shapes,
// with family-only fields left at their zero value for the other family.
//
// Example usage:
//
//	info, err := client.Info(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, door := range info.ConfiguredDoors() {
//	    fmt.Println(door.StatusLine())
//	}
//
// The package performs no I/O and never returns protocol errors; malformed
// device input is rejected by the protocol package before a model value is
// constructed.
package device
