package ledgerhw

import (
	"bytes"
	"context"
	"testing"
)

// fakeTransport replays a queue of canned APDU responses and records every
// APDU it was sent.
type fakeTransport struct {
	responses [][]byte
	sent      [][]byte
	closed    bool
}

func (f *fakeTransport) Write(b []byte) (int, error) {
	f.sent = append(f.sent, append([]byte{}, b...))
	return len(b), nil
}

func (f *fakeTransport) Read(b []byte) (int, error) {
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return copy(b, resp), nil
}

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}

func TestHDPathEncodesDepthAndComponents(t *testing.T) {
	path, err := HDPath("44'/148'/0'")
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{3, 0x80, 0, 0, 44, 0x80, 0, 0, 148, 0x80, 0, 0, 0}
	if !bytes.Equal(path, want) {
		t.Fatalf("got % x, want % x", path, want)
	}
}

func TestGetPublicKeyReturnsThirtyTwoBytes(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tp := &fakeTransport{responses: [][]byte{append(key, 0x90, 0x00)}}
	d := &Device{tp: tp}

	got, err := d.GetPublicKey(context.Background(), "44'/148'/0'", false)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got[:], key) {
		t.Fatalf("got %x, want %x", got, key)
	}
}

func TestGetPublicKeyTranslatesUserRejection(t *testing.T) {
	tp := &fakeTransport{responses: [][]byte{{0x69, 0x85}}}
	d := &Device{tp: tp}

	_, err := d.GetPublicKey(context.Background(), "44'/148'/0'", true)
	if err != ErrUserCancelled {
		t.Fatalf("expected ErrUserCancelled, got %v", err)
	}
}

func TestSignTransactionHashRefusedWhenDisabled(t *testing.T) {
	tp := &fakeTransport{responses: [][]byte{{0x00, 1, 2, 3, 0x90, 0x00}}}
	d := &Device{tp: tp}

	_, err := d.SignTransactionHash(context.Background(), "44'/148'/0'", [32]byte{})
	if err != ErrHashSigningDisabled {
		t.Fatalf("expected ErrHashSigningDisabled, got %v", err)
	}
}

func TestSignTransactionChunksLongPayloads(t *testing.T) {
	payload := bytes.Repeat([]byte{0xab}, 400)
	sig := bytes.Repeat([]byte{0x01}, 64)
	tp := &fakeTransport{responses: [][]byte{
		append(append([]byte{}, sig...), 0x90, 0x00),
		append(append([]byte{}, sig...), 0x90, 0x00),
		append(append([]byte{}, sig...), 0x90, 0x00),
	}}
	d := &Device{tp: tp}

	got, err := d.SignTransaction(context.Background(), "44'/148'/0'", payload)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, sig) {
		t.Fatalf("got %x, want %x", got, sig)
	}
	if len(tp.sent) != 3 {
		t.Fatalf("expected 3 chunked APDUs, got %d", len(tp.sent))
	}
	if tp.sent[0][2] != p1First {
		t.Fatalf("expected first chunk P1=%#x, got %#x", p1First, tp.sent[0][2])
	}
	if tp.sent[1][2] != p1More || tp.sent[2][2] != p1More {
		t.Fatalf("expected continuation chunks P1=%#x", p1More)
	}
}
