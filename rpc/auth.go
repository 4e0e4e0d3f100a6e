package rpc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Vaiz/nfs3-sub000/xdr"
)

// Authentication flavors, RFC 5531 §8.2.
const (
	AuthNull  uint32 = 0
	AuthUnix  uint32 = 1
	AuthShort uint32 = 2
	AuthDES   uint32 = 3
)

// maxUnixGIDs caps the supplementary-group list AUTH_UNIX credentials may
// carry at 16, the bound RFC 5531's authsys_parms declares (gids<16>); a
// longer list is rejected as malformed.
const maxUnixGIDs = 16

// maxMachineNameLen caps the AUTH_UNIX machine-name field.
const maxMachineNameLen = 255

// OpaqueAuth is the generic credential/verifier envelope carried on every
// RPC call and reply: a flavor tag plus an opaque, flavor-specific body.
type OpaqueAuth struct {
	Flavor uint32
	Body   []byte
}

// PackedSize returns the number of bytes Pack will write.
func (a OpaqueAuth) PackedSize() uint32 {
	return 4 + 4 + uint32(xdr.PaddedLen(len(a.Body)))
}

// Pack writes the flavor tag followed by the opaque body.
func (a OpaqueAuth) Pack(w io.Writer) (int, error) {
	n, err := xdr.PackUint32(w, a.Flavor)
	if err != nil {
		return n, err
	}
	bn, err := xdr.PackOpaque(w, a.Body)
	return n + bn, err
}

// Unpack reads a flavor tag and opaque body.
func (a *OpaqueAuth) Unpack(r io.Reader) (int, error) {
	flavor, n, err := xdr.UnpackUint32(r)
	if err != nil {
		return n, err
	}
	body, bn, err := xdr.UnpackOpaque(r)
	a.Flavor = flavor
	a.Body = body
	return n + bn, err
}

// UnixAuth holds the fields of an AUTH_UNIX (a.k.a. AUTH_SYS) credential,
// RFC 5531 §8.3.1: a timestamp, the client's machine name, its uid/gid, and
// a list of supplementary group ids.
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// String renders the credential for logging.
func (a *UnixAuth) String() string {
	return fmt.Sprintf("UnixAuth{machine=%s uid=%d gid=%d gids=%v}", a.MachineName, a.UID, a.GID, a.GIDs)
}

// ParseUnixAuth decodes an AUTH_UNIX credential body, as carried in
// OpaqueAuth.Body when Flavor == AuthUnix.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("rpc: empty auth_unix body")
	}

	r := bytes.NewReader(body)

	stamp, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read stamp: %w", err)
	}

	nameLen, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read machine name length: %w", err)
	}
	if nameLen > maxMachineNameLen {
		return nil, fmt.Errorf("rpc: machine name too long: %d", nameLen)
	}
	nameBytes := make([]byte, nameLen)
	if _, err := xdr.UnpackFixedOpaque(r, nameBytes); err != nil {
		return nil, fmt.Errorf("rpc: read machine name: %w", err)
	}

	uid, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read uid: %w", err)
	}
	gid, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read gid: %w", err)
	}

	gidCount, _, err := xdr.UnpackUint32(r)
	if err != nil {
		return nil, fmt.Errorf("rpc: read gid count: %w", err)
	}
	if gidCount > maxUnixGIDs {
		return nil, fmt.Errorf("rpc: too many gids: %d", gidCount)
	}
	gids := make([]uint32, gidCount)
	for i := range gids {
		gids[i], _, err = xdr.UnpackUint32(r)
		if err != nil {
			return nil, fmt.Errorf("rpc: read gid[%d]: %w", i, err)
		}
	}

	return &UnixAuth{
		Stamp:       stamp,
		MachineName: string(nameBytes),
		UID:         uid,
		GID:         gid,
		GIDs:        gids,
	}, nil
}

// Pack encodes the credential back into an AUTH_UNIX body. Used by the
// client package when issuing calls.
func (a *UnixAuth) Pack(w io.Writer) (int, error) {
	total := 0
	n, err := xdr.PackUint32(w, a.Stamp)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackString(w, a.MachineName)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.UID)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, a.GID)
	total += n
	if err != nil {
		return total, err
	}
	n, err = xdr.PackUint32(w, uint32(len(a.GIDs)))
	total += n
	if err != nil {
		return total, err
	}
	for _, g := range a.GIDs {
		n, err = xdr.PackUint32(w, g)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
