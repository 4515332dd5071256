package soroban_test

import (
	"context"
	"testing"

	"github.com/halide-labs/sorobanctl"
)

func TestGetAccount(t *testing.T) {
	sorobanClient := soroban.Client{}
	sorobanClient.URL = LocalNetwork
	sorobanClient.PassPhrase = LocalPassphrase

	a, err := sorobanClient.GetAccountEntry(context.Background(), "GDDFXO5LE6JLE7E4HYN7EWBDJSKJ3NV7MAC4UN7LY7BUSD6JNPUAUK4K")
	if err != nil {
		t.Fatal(err)
	}
	t.Log(a)
}
