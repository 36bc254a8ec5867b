// Package crypto implements the content-hash primitive used to verify that a
// reassembled payload matches what the sender staged.
//
// Every digest is exactly 16 bytes so it fits the fixed checksum field of a
// transfer header regardless of algorithm:
//
//	d, err := crypto.HashFile("/srv/outbox/report.csv", crypto.MD5)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(d) // uppercase hex, e.g. 9E107D9D372BB6826BD81D3542A419D6
//
// # Algorithms
//
//   - MD5: the default, matching peers that only know MD5.
//   - BLAKE2b128: BLAKE2b with a 128-bit output (golang.org/x/crypto/blake2b).
//
// Both ends of a transfer must be configured with the same algorithm; the
// algorithm is not carried on the wire.
//
// Digests are compared byte-for-byte with ==; the hex form is for logs only.
package crypto
