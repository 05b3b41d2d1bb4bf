// Package server emulates a GogoGate2 or iSmartGate hub.
//
// Hub is an http.Handler that answers the local API exactly as a hub
// does: requests are decrypted with the family key, the iSmartGate token
// and the account are checked, info returns an encrypted status document
// and activate toggles a configured door. Failures produce the family's
// unencrypted error documents.
//
// Tests put a Hub behind httptest.NewServer:
//
//	hub, _ := server.NewHub(server.HubConfig{
//	    Family:   device.FamilyISmartGate,
//	    Username: "admin",
//	    Password: "password",
//	})
//	ts := httptest.NewServer(hub)
//	defer ts.Close()
//
// Server wraps a Hub in a standalone process for manual testing of the
// CLI (see cmd/gogogate-sim):
//
//	srv, err := server.New(&server.Config{
//	    Port:     8080,
//	    Family:   device.FamilyGogoGate2,
//	    Username: "admin",
//	    Password: "password",
//	})
//	if err != nil {
//	    return err
//	}
//	return srv.Start()
//
// The emulator keeps no state beyond door positions and request counts.
package server
