package utils

import "fmt"

var BuildVersion string
var BuildRelease string
var Buildtime string

func GetVersion() string {
	version := BuildVersion
	if version == "" {
		version = "dev"
	}
	if BuildRelease == "" {
		return fmt.Sprintf("git-%v", version)
	}
	return fmt.Sprintf("%v (git-%v)", BuildRelease, version)
}
