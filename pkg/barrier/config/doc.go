/*
Package config loads barrier settings from YAML, JSON, or a plain map.

# Overview

Settings collects the knobs an application usually wants to keep outside
code: default and stream inactivity timeouts, whether metrics and tracing
are on, the log level, the raw observer bus and the notification journal.

	settings, err := config.FromFile("barrier.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	b := barrier.New[string](barrier.WithSettings(settings))

# File Format

	default_timeout: 30s
	stream_idle_timeout: 5m
	metrics: true
	tracing: false
	log_level: debug
	observer:
	  enabled: true
	  buffer_size: 128
	journal:
	  driver: sqlite
	  path: ./notifications.db

# Type Coercion

Durations accept:
  - string: parsed with time.ParseDuration ("150ms", "1m30s")
  - int/int64/float64: interpreted as milliseconds
  - time.Duration: used directly

Missing keys and values of the wrong type keep the default. Validate
reports settings that are present but unusable.
*/
package config
