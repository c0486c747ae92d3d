// Command devicetoken issues bearer tokens for the device API
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jengzang/activity-detection-go/internal/auth"
)

func main() {
	device := flag.String("device", "", "device ID the token is bound to")
	secret := flag.String("secret", os.Getenv("ACTIVITY_AUTH_JWT_SECRET"), "HMAC signing secret (default $ACTIVITY_AUTH_JWT_SECRET)")
	duration := flag.Duration("duration", 720*time.Hour, "token lifetime")
	flag.Parse()

	if *device == "" || *secret == "" {
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.GenerateToken(*device, *secret, *duration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicetoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
