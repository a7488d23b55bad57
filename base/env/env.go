package env

import (
	"os"
)

// PodName is the PODNAME set by the deployment, falling back to the hostname
func PodName() string {
	if name := os.Getenv("PODNAME"); name != "" {
		return name
	}
	name, _ := os.Hostname()
	return name
}

// EnvName example: staging
func EnvName() string {
	return os.Getenv("ENV_NAME")
}

// AppName example: gomarket-api
func AppName() string {
	return os.Getenv("APP_NAME")
}
