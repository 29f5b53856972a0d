// Package main provides the entry point of Docket, a web application for
// writing and sharing markdown documents. Users sign up with a password, LDAP
// or OIDC, keep typed personal settings (some of which need GDPR consent) and
// export or delete their data. Administrators manage accounts and the catalog
// of user settings. Data is stored with gorm in SQLite, MySQL or Postgres.
package main
