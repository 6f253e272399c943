// Package config provides configuration parsing for Glint projects.
//
// The configuration is stored in glint.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "my-app",
//	  "debug": false,
//	  "devtools": {
//	    "addr": "127.0.0.1:6230"
//	  },
//	  "metrics": {
//	    "namespace": "glint",
//	    "subsystem": "runtime"
//	  },
//	  "bench": {
//	    "profile": "standard",
//	    "iterations": 200000,
//	    "fanOut": 64
//	  }
//	}
//
// # Environment Overrides
//
// Three environment variables override file values:
//
//	GLINT_ADDR       devtools listen address
//	GLINT_DEBUG      debug flag (any strconv.ParseBool value)
//	GLINT_NAMESPACE  metric namespace
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.DevtoolsURL())
package config
