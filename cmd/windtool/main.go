// Command windtool provisions the back-office operator: it derives the
// salt/verifier pair for the server config and can mint a bearer token for
// scripted API access.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"windykator/internal/auth"
	"windykator/internal/buildinfo"
	"windykator/internal/cryptox"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "credentials":
		err = runCredentials(os.Args[2:])
	case "token":
		err = runToken(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: windtool credentials | token -k <secret> [-o <login>] [-d <validity>]")
}

// runCredentials prompts for the operator password and prints the hex salt
// and verifier to paste into the server configuration.
func runCredentials(args []string) error {
	fs := flag.NewFlagSet("credentials", flag.ExitOnError)
	fs.Parse(args)

	fmt.Print("Operator password: ")
	password, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return fmt.Errorf("empty password")
	}

	saltHex, err := cryptox.NewSalt()
	if err != nil {
		return err
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return err
	}

	verifier := cryptox.MakeVerifier(cryptox.DeriveKey(password, salt))

	fmt.Printf("OPERATOR_SALT=%s\n", saltHex)
	fmt.Printf("OPERATOR_VERIFIER=%s\n", hex.EncodeToString(verifier))
	return nil
}

// runToken mints a bearer token directly from the signing secret, for cron
// jobs that call the API without going through the login endpoint.
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	secret := fs.String("k", "", "JWT signing secret")
	login := fs.String("o", "operator", "operator login")
	validity := fs.Duration("d", 12*time.Hour, "token validity")
	fs.Parse(args)

	if *secret == "" {
		return fmt.Errorf("signing secret required (-k)")
	}

	token, err := auth.GenerateToken(*login, []byte(*secret), *validity)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
