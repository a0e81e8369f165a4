package lab

// APIPortOffset separates a lab's API port from its HTTP port by convention.
const APIPortOffset = 1000

// PortPair is an allocated HTTP/API port combination.
type PortPair struct {
	HTTP int
	API  int
}

// NextPort allocates the next port pair: one past the highest HTTP port in
// use, or basePort+1 for an empty registry. The probe, when non-nil, reports
// whether a host port is currently free; allocation advances past pairs whose
// HTTP or API side is already bound. The probe is best-effort only — the port
// is not reserved, and concurrent allocations are serialized by the registry
// lock, not here.
func NextPort(usedHTTPPorts []int, basePort int, probe func(port int) bool) PortPair {
	next := basePort
	for _, p := range usedHTTPPorts {
		if p > next {
			next = p
		}
	}
	next++

	if probe != nil {
		for !probe(next) || !probe(next+APIPortOffset) {
			next++
		}
	}

	return PortPair{HTTP: next, API: next + APIPortOffset}
}
