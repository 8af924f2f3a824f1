// Package config loads process settings from the environment and group chat
// definitions from YAML, and assembles the agents and orchestrator
// configuration they describe.
//
// Environment settings are read from .env files (godotenv) and then the
// process environment (envconfig). A group file looks like:
//
//	name: art-direction
//	max_iterations: 10
//	terminators: [ArtDirector]
//	termination:
//	  predicate: contains
//	  token: approve
//	agents:
//	  - id: ArtDirector
//	    instructions: |
//	      You are an art director ...
//	  - id: CopyWriter
//	    instructions: |
//	      You are a copywriter ...
package config
