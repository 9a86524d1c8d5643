// Command kvs-client issues a single SET/GET/RM request against a running
// kvs-server and prints the result.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ignite-kv/ignite/internal/client"
	"github.com/ignite-kv/ignite/pkg/errors"
	"github.com/ignite-kv/ignite/pkg/options"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: kvs-client <set|get|rm> ...")
	}

	cmd, args := args[0], args[1:]

	switch cmd {
	case "set":
		return runSet(args)
	case "get":
		return runGet(args)
	case "rm":
		return runRemove(args)
	default:
		return fmt.Errorf("unrecognized command %q", cmd)
	}
}

func runSet(args []string) error {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultNetworkAddress, "server address, HOST:PORT")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: kvs-client set <KEY> <VALUE> [--addr HOST:PORT]")
	}
	key, value := fs.Arg(0), fs.Arg(1)

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	return c.Set(key, value)
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultNetworkAddress, "server address, HOST:PORT")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kvs-client get <KEY> [--addr HOST:PORT]")
	}
	key := fs.Arg(0)

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	value, found, err := c.Get(key)
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("Key not found")
		return nil
	}
	fmt.Println(value)
	return nil
}

func runRemove(args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	addr := fs.String("addr", options.DefaultNetworkAddress, "server address, HOST:PORT")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: kvs-client rm <KEY> [--addr HOST:PORT]")
	}
	key := fs.Arg(0)

	c, err := client.Dial(*addr)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Remove(key); err != nil {
		if errors.Is(err, errors.KeyNotFound) {
			fmt.Println("Key not found")
		}
		return err
	}
	return nil
}
