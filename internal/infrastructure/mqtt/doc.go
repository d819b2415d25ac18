// Package mqtt provides the MQTT client Terrain Web uses to announce page
// launches.
//
// The client is publish-only. It maintains a retained status message on
// terrainweb/system/status ("online" on connect, "offline" on Close, and
// the same via Last Will if the process dies) and publishes launch events
// on terrainweb/launch/{page_id}.
//
// Usage:
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishDefault(mqtt.Topics{}.Launch("terrain"), payload)
//
// Tests that need a broker are behind the integration build tag and expect
// one at 127.0.0.1:1883.
package mqtt
