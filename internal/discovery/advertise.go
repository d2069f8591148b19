package discovery

import (
	"fmt"
	"strconv"

	"github.com/grandcat/zeroconf"
)

// Advertiser announces a running server over mDNS until Shutdown is called
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on port under ServiceType. tailPort is
// published in the TXT record when non-zero.
func Advertise(instance string, port int, version string, tailPort int) (*Advertiser, error) {
	txt := []string{TxtVersion + "=" + version}
	if tailPort > 0 {
		txt = append(txt, TxtTailPort+"="+strconv.Itoa(tailPort))
	}

	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the announcement
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}
