package main

var (
	// version is set during build via ldflags
	Version = "v1.0.0"
	// commit is set during build via ldflags. see Makefile.
	Commit = "none"
	// date is set during build via ldflags. see Makefile.
	Date = "unknown"
)
