// Package discovery advertises and locates aesdsocket servers over mDNS.
//
// A server started with --advertise registers itself as "_aesdsocket._tcp"
// in the "local." domain. The TXT record carries the server version and,
// when the tail endpoint is enabled, its port:
//
//	version=dev-20240101
//	tail=9080
//
// # Usage Example
//
//	scanner := discovery.NewScanner()
//	scanner.Timeout = 3 * time.Second
//
//	services, err := scanner.Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range services {
//	    fmt.Println(s.Instance, s.Addr(), s.TailURL())
//	}
//
// # Network Requirements
//
// mDNS uses UDP port 5353 on the local link. Discovery does not cross
// routers, and some container networks drop multicast entirely.
package discovery
