package status

import "sync"

var (
	mu               sync.RWMutex
	printerConnected bool
	lastPrintError   string
)

// SetPrinterConnected records printer connectivity for the status API.
func SetPrinterConnected(connected bool) {
	mu.Lock()
	defer mu.Unlock()
	printerConnected = connected
	if connected {
		lastPrintError = ""
	}
}

// SetLastPrintError records the most recent transport failure reason.
func SetLastPrintError(reason string) {
	mu.Lock()
	defer mu.Unlock()
	lastPrintError = reason
}

// IsPrinterConnected reports the last known printer connectivity.
func IsPrinterConnected() bool {
	mu.RLock()
	defer mu.RUnlock()
	return printerConnected
}

// LastPrintError returns the most recent transport failure reason, empty
// when the last job succeeded.
func LastPrintError() string {
	mu.RLock()
	defer mu.RUnlock()
	return lastPrintError
}
