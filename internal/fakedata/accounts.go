// Package fakedata generates synthetic account records for test fixtures.
package fakedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"

	"threatkit/internal/outputter"
)

// Field names, in output column order
const (
	FieldAddress   = "address"
	FieldEmail     = "email"
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldZipCode   = "zip_code"
	FieldPassword  = "password"
)

// AllFields is the default field set
var AllFields = []string{FieldAddress, FieldEmail, FieldFirstName, FieldLastName, FieldZipCode, FieldPassword}

const (
	passwordLength = 10
	// letters, digits and ASCII punctuation
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// Account is one generated record. Only requested fields are set.
type Account map[string]string

// Generator produces accounts from a seeded source
type Generator struct {
	faker *gofakeit.Faker
	rng   *rand.Rand
}

// NewGenerator returns a generator. Seed 0 draws a random seed.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Generator{
		faker: gofakeit.New(seed),
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// ResolveFields validates requested field names and returns them in canonical
// column order. Empty input selects every field.
func ResolveFields(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return append([]string(nil), AllFields...), nil
	}
	want := make(map[string]bool, len(requested))
	for _, f := range requested {
		for _, part := range strings.Split(f, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if !isField(part) {
				return nil, fmt.Errorf("unknown field %q (choose from %s)", part, strings.Join(AllFields, ", "))
			}
			want[part] = true
		}
	}
	var out []string
	for _, f := range AllFields {
		if want[f] {
			out = append(out, f)
		}
	}
	return out, nil
}

func isField(name string) bool {
	for _, f := range AllFields {
		if f == name {
			return true
		}
	}
	return false
}

// Generate creates n accounts with the given (already resolved) fields
func (g *Generator) Generate(n int, fields []string) []Account {
	accounts := make([]Account, 0, n)
	for i := 0; i < n; i++ {
		account := make(Account, len(fields))
		for _, field := range fields {
			account[field] = g.value(field)
		}
		accounts = append(accounts, account)
	}
	return accounts
}

func (g *Generator) value(field string) string {
	switch field {
	case FieldAddress:
		addr := g.faker.Address()
		return strings.ReplaceAll(addr.Address, "\n", ", ")
	case FieldEmail:
		return g.faker.Email()
	case FieldFirstName:
		return g.faker.FirstName()
	case FieldLastName:
		return g.faker.LastName()
	case FieldZipCode:
		return g.faker.Zip()
	case FieldPassword:
		return g.Password(passwordLength)
	default:
		return ""
	}
}

// Password returns length characters drawn uniformly from letters, digits and punctuation
func (g *Generator) Password(length int) string {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		sb.WriteByte(passwordAlphabet[g.rng.Intn(len(passwordAlphabet))])
	}
	return sb.String()
}

// Table lays accounts out for CSV output
func Table(accounts []Account, fields []string) *outputter.Table {
	t := &outputter.Table{Columns: fields}
	for _, a := range accounts {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = a[f]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// OrderedAccount marshals an account with its keys in field order
type OrderedAccount struct {
	fields  []string
	account Account
}

// Ordered wraps accounts so JSON and YAML keep the column order of the CSV table
func Ordered(accounts []Account, fields []string) []OrderedAccount {
	out := make([]OrderedAccount, len(accounts))
	for i, a := range accounts {
		out[i] = OrderedAccount{fields: fields, account: a}
	}
	return out
}

func (o OrderedAccount) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(o.account[f])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o OrderedAccount) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range o.fields {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: o.account[f]},
		)
	}
	return node, nil
}
