package main

import "net/url"

// splitSeedURL parses a seed target into the (scheme, host, path_prefix)
// triple a model.Target needs. A bare host with no scheme defaults to
// https, matching the teacher's probe defaulting behaviour.
func splitSeedURL(raw string) (scheme, host, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", err
	}
	if u.Host == "" {
		u, err = url.Parse("https://" + raw)
		if err != nil {
			return "", "", "", err
		}
	}
	scheme = u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme, u.Host, u.Path, nil
}
