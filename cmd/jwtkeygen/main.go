package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Veysel440/ipgate/internal/jwtauth"
)

// jwtkeygen <kid>                  prints a new kid:secret pair for JWT_KEYS
// jwtkeygen --sign --sub ops <kid> mints an operator token from JWT_KEYS
func main() {
	sign := flag.Bool("sign", false, "mint a token instead of a key")
	sub := flag.String("sub", "operator", "token subject")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if *sign {
		keys := jwtauth.Load(os.Getenv("JWT_KEYS"), flag.Arg(0), []byte(os.Getenv("JWT_SECRET")))
		tok, err := jwtauth.Sign(keys, *sub, *ttl)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(tok)
		return
	}

	if flag.NArg() < 1 {
		fmt.Println("usage: jwtkeygen <kid> | jwtkeygen --sign [--sub name] [--ttl 12h] [kid]")
		return
	}
	var b [32]byte
	_, _ = rand.Read(b[:])
	fmt.Printf("%s:%s\n", flag.Arg(0), hex.EncodeToString(b[:]))
}
