// Package config handles loading and validating Terrain Web configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (TERRAINWEB_*)
//   - Validation of required fields via struct tags
//   - Default value handling
//
// Security Considerations:
//   - page.forward_unvalidated_params copies every query parameter into the
//     rendered page. Leave page.escape_mode at "hardened" unless values
//     must be written verbatim as the legacy page did.
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Page.InstanceID)
package config
