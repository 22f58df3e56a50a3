package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/tradeyard/auth-service/pkg/constant"
)

// Resolver maps client IPs to a coarse "City, CC" label for the session
// registry. A nil Resolver is valid and resolves everything to Unknown, so
// deployments without a GeoLite2 database need no special casing.
type Resolver struct {
	reader *geoip2.Reader
}

func NewResolver(dbPath string) (*Resolver, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

func (r *Resolver) Close() {
	if r != nil && r.reader != nil {
		r.reader.Close()
	}
}

func (r *Resolver) Resolve(ipAddress string) string {
	if r == nil || r.reader == nil {
		return constant.UnknownLocation
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return constant.UnknownLocation
	}

	record, err := r.reader.City(ip)
	if err != nil {
		return constant.UnknownLocation
	}

	city := record.City.Names["en"]
	country := record.Country.IsoCode

	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return constant.UnknownLocation
	}
}
