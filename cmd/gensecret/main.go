// Command gensecret prints a random key suitable for SECRET_KEY.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	length := pflag.IntP("length", "n", 32, "Key length in bytes")
	pflag.Parse()

	if *length < 16 {
		fmt.Fprintln(os.Stderr, "key must be at least 16 bytes")
		os.Exit(1)
	}

	b := make([]byte, *length)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
