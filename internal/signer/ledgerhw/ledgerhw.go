// Package ledgerhw implements the hardware-wallet signer substrate: a
// framed APDU protocol over a USB HID transport to a device running the
// Stellar application.
package ledgerhw

import (
	"context"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/karalabe/hid"
	"github.com/pkg/errors"
)

const (
	vendorIDLedger = 0x2c97

	claGeneric = 0xe0

	insGetPublicKey = 0x02
	insSignTx       = 0x04
	insGetAppConfig = 0x06
	insSignTxHash   = 0x08

	p1NonConfirm = 0x00
	p1Confirm    = 0x01
	p1First      = 0x00
	p1More       = 0x80

	p2NoChainCode = 0x00

	sw1Success       = 0x90
	sw2Success       = 0x00
	sw1UserRejection = 0x69
	sw2UserRejection = 0x85

	maxAPDUChunk = 150
)

// ErrUserCancelled is returned when the device holder rejects a pending
// confirmation.
var ErrUserCancelled = errors.New("ledgerhw: user rejected the request on the device")

// ErrHashSigningDisabled is returned when sign-tx-hash is requested but the
// device's app config does not report hash-signing mode enabled.
var ErrHashSigningDisabled = errors.New("ledgerhw: the device does not have hash signing enabled")

// transport is the framed byte-stream abstraction the device communicates
// over; satisfied by *hid.Device, overridable in tests.
type transport interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// Device is a single open connection to a Ledger hardware wallet running
// the Stellar application.
type Device struct {
	tp transport
}

// Open enumerates attached USB HID devices and opens the first one carrying
// the Ledger vendor ID.
func Open() (*Device, error) {
	infos, err := hid.Enumerate(vendorIDLedger, 0)
	if err != nil {
		return nil, errors.Wrap(err, "ledgerhw: enumerating USB HID devices")
	}
	if len(infos) == 0 {
		return nil, errors.New("ledgerhw: no Ledger device found")
	}
	dev, err := infos[0].Open()
	if err != nil {
		return nil, errors.Wrap(err, "ledgerhw: opening device")
	}
	return &Device{tp: dev}, nil
}

func (d *Device) Close() error {
	return d.tp.Close()
}

// HDPath encodes a BIP-44 derivation path as the device expects it: a depth
// byte followed by big-endian 32-bit path components.
func HDPath(path string) ([]byte, error) {
	parts := strings.Split(strings.TrimPrefix(path, "m/"), "/")
	out := make([]byte, 1, 1+4*len(parts))
	out[0] = byte(len(parts))
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		part = strings.TrimSuffix(strings.TrimSuffix(part, "'"), "h")
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "ledgerhw: invalid path component %q", part)
		}
		if hardened {
			n |= 0x80000000
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(n))
		out = append(out, buf[:]...)
	}
	return out, nil
}

// GetPublicKey fetches the ed25519 public key at path, asking for on-device
// confirmation when confirm is true.
func (d *Device) GetPublicKey(ctx context.Context, path string, confirm bool) ([32]byte, error) {
	var out [32]byte
	hdPath, err := HDPath(path)
	if err != nil {
		return out, err
	}
	p1 := byte(p1NonConfirm)
	if confirm {
		p1 = p1Confirm
	}
	resp, err := d.exchange(ctx, claGeneric, insGetPublicKey, p1, p2NoChainCode, hdPath)
	if err != nil {
		return out, err
	}
	if len(resp) < 32 {
		return out, errors.New("ledgerhw: get-public-key response too short")
	}
	copy(out[:], resp[:32])
	return out, nil
}

// AppConfig reports the Stellar app's version and whether hash-only signing
// is enabled.
type AppConfig struct {
	HashSigningEnabled bool
	Version             string
}

func (d *Device) GetAppConfig(ctx context.Context) (AppConfig, error) {
	resp, err := d.exchange(ctx, claGeneric, insGetAppConfig, 0, 0, nil)
	if err != nil {
		return AppConfig{}, err
	}
	if len(resp) < 4 {
		return AppConfig{}, errors.New("ledgerhw: get-app-config response too short")
	}
	return AppConfig{
		HashSigningEnabled: resp[0] == 1,
		Version:             strconv.Itoa(int(resp[1])) + "." + strconv.Itoa(int(resp[2])) + "." + strconv.Itoa(int(resp[3])),
	}, nil
}

// SignTransaction signs the full transaction payload (the envelope's
// signature base), returning a raw 64-byte ed25519 signature.
func (d *Device) SignTransaction(ctx context.Context, path string, payload []byte) ([]byte, error) {
	return d.signFramed(ctx, insSignTx, path, payload)
}

// SignTransactionHash signs only the precomputed 32-byte transaction hash.
// Refused unless the device reports hash signing enabled.
func (d *Device) SignTransactionHash(ctx context.Context, path string, hash [32]byte) ([]byte, error) {
	cfg, err := d.GetAppConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.HashSigningEnabled {
		return nil, ErrHashSigningDisabled
	}
	hdPath, err := HDPath(path)
	if err != nil {
		return nil, err
	}
	resp, err := d.exchange(ctx, claGeneric, insSignTxHash, p1NonConfirm, p2NoChainCode, append(hdPath, hash[:]...))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// signFramed chunks an arbitrary-length payload across successive APDUs
// (p1First for the HD path plus first chunk, p1More for continuations), the
// shape required when the device must confirm a human-readable transaction
// summary across frames.
func (d *Device) signFramed(ctx context.Context, ins byte, path string, payload []byte) ([]byte, error) {
	hdPath, err := HDPath(path)
	if err != nil {
		return nil, err
	}

	first := append(append([]byte{}, hdPath...), payload[:min(len(payload), maxAPDUChunk-len(hdPath))]...)
	offset := len(first) - len(hdPath)

	resp, err := d.exchange(ctx, claGeneric, ins, p1First, p2NoChainCode, first)
	if err != nil {
		return nil, err
	}
	for offset < len(payload) {
		end := min(offset+maxAPDUChunk, len(payload))
		resp, err = d.exchange(ctx, claGeneric, ins, p1More, p2NoChainCode, payload[offset:end])
		if err != nil {
			return nil, err
		}
		offset = end
	}
	return resp, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// exchange sends one APDU and returns the response body, translating the
// device's user-rejection status word into ErrUserCancelled.
func (d *Device) exchange(ctx context.Context, cla, ins, p1, p2 byte, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	apdu := make([]byte, 5+len(data))
	apdu[0] = cla
	apdu[1] = ins
	apdu[2] = p1
	apdu[3] = p2
	apdu[4] = byte(len(data))
	copy(apdu[5:], data)

	if _, err := d.tp.Write(apdu); err != nil {
		return nil, errors.Wrap(err, "ledgerhw: writing APDU")
	}

	buf := make([]byte, 256)
	n, err := d.tp.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "ledgerhw: reading APDU response")
	}
	if n < 2 {
		return nil, errors.New("ledgerhw: truncated APDU response")
	}
	body, sw1, sw2 := buf[:n-2], buf[n-2], buf[n-1]
	if sw1 == sw1UserRejection && sw2 == sw2UserRejection {
		return nil, ErrUserCancelled
	}
	if sw1 != sw1Success || sw2 != sw2Success {
		return nil, errors.Errorf("ledgerhw: device returned status %02x%02x", sw1, sw2)
	}
	return body, nil
}
