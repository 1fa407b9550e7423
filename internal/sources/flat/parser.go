// Package flat reads hand-maintained topology feeds published as a CSV
// table or as a JSON array of objects with the same column names.
package flat

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"

	"github.com/deksa89/argo-connectors/internal/domain"
	"github.com/deksa89/argo-connectors/internal/sources/feed"
)

// Column names shared by the CSV header and the JSON object keys.
const (
	ColGroup       = "SITENAME-SERVICEGROUP"
	ColServiceType = "SERVICE_TYPE"
	ColURL         = "URL"
	ColContact     = "CONTACT_EMAIL"
	ColUID         = "Service Unique ID"
	ColDescription = "SERVICE_DESCRIPTION"
)

const (
	FeedTopology     = "flat topology"
	FeedServiceTypes = "flat service types"
)

var required = []string{ColGroup, ColServiceType, ColURL, ColContact, ColUID}

type Parser struct {
	pctx feed.Context
}

func NewParser(pctx feed.Context) *Parser {
	return &Parser{pctx: pctx}
}

// ParseEndpoints decodes every row. A feed without rows is an error
// wrapping domain.ErrEmptyFeed.
func (p *Parser) ParseEndpoints(data []byte, isCSV bool) ([]domain.FlatEntry, error) {
	rows, err := p.rows(FeedTopology, data, isCSV, required)
	if err != nil {
		return nil, err
	}
	out := make([]domain.FlatEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.FlatEntry{
			Group:        r[ColGroup],
			ServiceType:  r[ColServiceType],
			URL:          r[ColURL],
			ContactEmail: r[ColContact],
			UID:          r[ColUID],
		})
	}
	return out, nil
}

// ParseContacts names each row fqdn[_uid]+service type.
func (p *Parser) ParseContacts(data []byte, isCSV, uid bool) ([]domain.ContactRecord, error) {
	entries, err := p.ParseEndpoints(data, isCSV)
	if err != nil {
		return nil, err
	}
	var out []domain.ContactRecord
	for _, e := range entries {
		emails := feed.SplitEmails(e.ContactEmail)
		if len(emails) == 0 {
			continue
		}
		host := domain.UIDHostname(feed.FQDN(e.URL), e.UID, uid)
		out = append(out, domain.ContactRecord{
			Name:     domain.EndpointKey(host, e.ServiceType),
			Contacts: domain.EmailContacts(emails...),
		})
	}
	return out, nil
}

// ParseServiceTypes lists the distinct service types of a flat feed in
// first-seen order.
func (p *Parser) ParseServiceTypes(data []byte, isCSV bool) ([]domain.ServiceType, error) {
	rows, err := p.rows(FeedServiceTypes, data, isCSV, []string{ColServiceType})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []domain.ServiceType
	for _, r := range rows {
		name := r[ColServiceType]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, domain.ServiceType{
			Name:        name,
			Description: r[ColDescription],
			Tags:        []string{"connectors"},
		})
	}
	return out, nil
}

type row map[string]string

func (p *Parser) rows(feedName string, data []byte, isCSV bool, cols []string) ([]row, error) {
	var (
		rows []row
		err  error
	)
	if isCSV {
		rows, err = csvRows(data, cols)
	} else {
		rows, err = jsonRows(data, cols)
	}
	if err != nil {
		return nil, p.pctx.Fail(feedName, err)
	}
	if len(rows) == 0 {
		return nil, p.pctx.Fail(feedName, domain.ErrEmptyFeed)
	}
	return rows, nil
}

func csvRows(data []byte, cols []string) ([]row, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, c := range cols {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("missing required column %s", c)
		}
	}

	var out []row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		m := make(row, len(index))
		for name, i := range index {
			m[name] = rec[i]
		}
		out = append(out, m)
	}
	return out, nil
}

func jsonRows(data []byte, cols []string) ([]row, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON document")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, errors.New("document is not an array")
	}

	var out []row
	for i, it := range doc.Array() {
		if !it.IsObject() {
			return nil, fmt.Errorf("entry #%d is not an object", i)
		}
		m := make(row)
		for _, c := range cols {
			v := it.Get(gjson.Escape(c))
			if !v.Exists() {
				return nil, fmt.Errorf("entry #%d: missing required field %s", i, c)
			}
			if v.Type != gjson.String && v.Type != gjson.Number {
				return nil, fmt.Errorf("entry #%d: field %s is %s, want string", i, c, v.Type)
			}
			m[c] = v.String()
		}
		if d := it.Get(ColDescription); d.Exists() {
			m[ColDescription] = d.String()
		}
		out = append(out, m)
	}
	return out, nil
}
