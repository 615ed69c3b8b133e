// Package sysaccounts reads the accounts present on the host.
package sysaccounts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPasswdPath is the system account database on Linux hosts.
const DefaultPasswdPath = "/etc/passwd"

// Account is one entry of the host account database.
type Account struct {
	Name  string
	UID   int
	GID   int
	Gecos string
	Home  string
	Shell string
}

// Source provides every account known to the host. It is read only.
type Source interface {
	Accounts(ctx context.Context) ([]Account, error)
}

// PasswdFile reads accounts from a passwd(5) formatted file.
type PasswdFile struct {
	Path string
}

func NewPasswdFile(path string) *PasswdFile {
	if path == "" {
		path = DefaultPasswdPath
	}
	return &PasswdFile{Path: path}
}

func (p *PasswdFile) Accounts(ctx context.Context) ([]Account, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}
	defer f.Close()
	return ParsePasswd(ctx, f)
}

// ParsePasswd parses passwd(5) lines in file order. Blank lines, comments
// and NIS compat entries ('+' or '-' prefixed) are skipped.
func ParsePasswd(ctx context.Context, r io.Reader) ([]Account, error) {
	var accounts []Account
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || line[0] == '+' || line[0] == '-' {
			continue
		}

		fields := strings.Split(line, ":")
		if len(fields) < 7 {
			return nil, fmt.Errorf("passwd line %d: expected 7 fields, got %d", lineNo, len(fields))
		}
		uid, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("passwd line %d: invalid uid %q", lineNo, fields[2])
		}
		gid, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("passwd line %d: invalid gid %q", lineNo, fields[3])
		}
		accounts = append(accounts, Account{
			Name:  fields[0],
			UID:   uid,
			GID:   gid,
			Gecos: fields[4],
			Home:  fields[5],
			Shell: fields[6],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Static is a fixed list of accounts.
type Static []Account

func (s Static) Accounts(context.Context) ([]Account, error) {
	out := make([]Account, len(s))
	copy(out, s)
	return out, nil
}
