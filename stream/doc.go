// Package stream provides the byte-order aware primitives the transfer
// protocol frames are encoded with.
//
// A Writer and a Reader wrap an io.Writer or io.Reader together with a
// binary.ByteOrder. The protocol never picks the order itself; it inherits
// whatever the stream was built with, which is big-endian unless configured
// otherwise:
//
//	w := stream.NewWriter(conn, binary.BigEndian)
//	if err := w.WriteUint32(total); err != nil {
//	    return err
//	}
//	if err := w.WriteStr(name); err != nil {
//	    return err
//	}
//
// Strings carry a 1-byte length prefix and are therefore limited to 255
// bytes. Read errors from the underlying reader are returned unchanged
// (io.EOF and io.ErrUnexpectedEOF included) so callers can apply their own
// policy.
package stream
