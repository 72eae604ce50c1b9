package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// ensureDSN builds a postgres URL from the split FLEET_DB_* settings when no
// DSN was given.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	var missing []string
	for env, v := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("set %s or all of %s", EnvDBDSN, strings.Join(missing, ", "))
	}

	user := url.User(db.User)
	if db.Password != "" {
		user = url.UserPassword(db.User, db.Password)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   user,
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}
