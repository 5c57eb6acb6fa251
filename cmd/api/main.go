package main

import (
	"os"
)

// @title                      2moro API
// @version                    1.0
// @description                Life OS backend: onboarding, habits, memories and people.
// @BasePath                   /api/v1
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
