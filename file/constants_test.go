package file

// Common test packet lengths.
const (
	testPacketLength    = 256
	testPacketLength64K = 64 * 1024
)

// Common test payload sizes.
const (
	testFileSize1KB   = 1024
	testFileSizeOdd   = 1000
	testFileSize1MBIn = 1000000
)

const testLogicalName = "report.csv"
