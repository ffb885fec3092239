package content

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// Singleton reads and writes a document stored under a fixed key.
//
// Get never writes: while nothing has been saved it returns the defaults.
// Put replaces the whole document, so fields left empty in the value are
// stored empty rather than kept from the previous version.
type Singleton[T any] struct {
	store      docstore.Store
	collection string
	key        string
	defaults   func() T
	encode     func(T) (map[string]any, error)
	decode     func(docstore.Document) T
	opts       options
}

// NewCompanyInfo returns the company info singleton. Narrative texts are
// sanitized with the bluemonday UGC policy before they are stored.
func NewCompanyInfo(store docstore.Store, opts ...Option) *Singleton[models.CompanyInfo] {
	policy := bluemonday.UGCPolicy()
	return &Singleton[models.CompanyInfo]{
		store:      store,
		collection: models.CollectionCompanyInfo,
		key:        models.CompanyInfoKey,
		defaults:   models.DefaultCompanyInfo,
		encode: func(c models.CompanyInfo) (map[string]any, error) {
			return encodeCompanyInfo(policy, c)
		},
		decode: decodeCompanyInfo,
		opts:   newOptions(opts),
	}
}

// NewContactInfo returns the contact info singleton.
func NewContactInfo(store docstore.Store, opts ...Option) *Singleton[models.ContactInfo] {
	return &Singleton[models.ContactInfo]{
		store:      store,
		collection: models.CollectionContact,
		key:        models.ContactInfoKey,
		defaults:   models.DefaultContactInfo,
		encode:     encodeContactInfo,
		decode:     decodeContactInfo,
		opts:       newOptions(opts),
	}
}

// Key returns the fixed document id.
func (s *Singleton[T]) Key() string {
	return s.key
}

// Get returns the stored value or the defaults when none was saved.
func (s *Singleton[T]) Get(ctx context.Context) (T, error) {
	var doc *docstore.Document
	err := s.opts.call(ctx, s.collection, "get", func(ctx context.Context) error {
		var err error
		doc, err = s.store.GetOne(ctx, s.collection, s.key)
		return err
	})
	if errors.Is(err, docstore.ErrNotFound) || (err == nil && doc == nil) {
		return s.defaults(), nil
	}
	if err != nil {
		var zero T
		return zero, storeError("get", s.collection, s.key, err)
	}
	return s.decode(*doc), nil
}

// Put validates v and fully overwrites the stored document.
func (s *Singleton[T]) Put(ctx context.Context, v T) (T, error) {
	var zero T
	fields, err := s.encode(v)
	if err != nil {
		return zero, err
	}
	fields[models.FieldUpdatedAt] = s.opts.stamp()

	err = s.opts.call(ctx, s.collection, "put", func(ctx context.Context) error {
		return s.store.Set(ctx, s.collection, s.key, fields)
	})
	if err != nil {
		return zero, storeError("put", s.collection, s.key, err)
	}
	s.opts.log.Info().Str("collection", s.collection).Str("key", s.key).Msg("saved")
	return s.decode(docstore.Document{ID: s.key, Fields: fields}), nil
}

func encodeCompanyInfo(policy *bluemonday.Policy, c models.CompanyInfo) (map[string]any, error) {
	switch {
	case c.YearsExperience < 0:
		return nil, &ValidationError{Field: "yearsExperience", Reason: "must not be negative"}
	case c.ProjectsCompleted < 0:
		return nil, &ValidationError{Field: "projectsCompleted", Reason: "must not be negative"}
	case c.ClientSatisfaction < 0 || c.ClientSatisfaction > 100:
		return nil, &ValidationError{Field: "clientSatisfaction", Reason: "must be between 0 and 100"}
	}
	return map[string]any{
		"yearsExperience":    c.YearsExperience,
		"projectsCompleted":  c.ProjectsCompleted,
		"clientSatisfaction": c.ClientSatisfaction,
		"aboutUs":            sanitize(policy, c.AboutUs),
		"mission":            sanitize(policy, c.Mission),
		"vision":             sanitize(policy, c.Vision),
	}, nil
}

func sanitize(policy *bluemonday.Policy, s string) string {
	return strings.TrimSpace(policy.Sanitize(s))
}

func encodeContactInfo(c models.ContactInfo) (map[string]any, error) {
	email := strings.TrimSpace(c.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, &ValidationError{Field: "email", Reason: "is not a valid address"}
		}
	}

	links := map[string]string{
		"mapUrl":    c.MapURL,
		"facebook":  c.SocialMedia.Facebook,
		"instagram": c.SocialMedia.Instagram,
		"linkedin":  c.SocialMedia.LinkedIn,
		"twitter":   c.SocialMedia.Twitter,
		"github":    c.SocialMedia.GitHub,
	}
	for field, link := range links {
		if err := checkLink(field, link); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"email":   email,
		"phone":   strings.TrimSpace(c.Phone),
		"address": strings.TrimSpace(c.Address),
		"city":    strings.TrimSpace(c.City),
		"country": strings.TrimSpace(c.Country),
		"mapUrl":  strings.TrimSpace(c.MapURL),
		"socialMedia": map[string]any{
			"facebook":  strings.TrimSpace(c.SocialMedia.Facebook),
			"instagram": strings.TrimSpace(c.SocialMedia.Instagram),
			"linkedin":  strings.TrimSpace(c.SocialMedia.LinkedIn),
			"twitter":   strings.TrimSpace(c.SocialMedia.Twitter),
			"github":    strings.TrimSpace(c.SocialMedia.GitHub),
		},
		"businessHours": map[string]any{
			"weekdays": strings.TrimSpace(c.BusinessHours.Weekdays),
			"saturday": strings.TrimSpace(c.BusinessHours.Saturday),
			"sunday":   strings.TrimSpace(c.BusinessHours.Sunday),
		},
	}, nil
}

// checkLink accepts empty values and absolute http(s) URLs.
func checkLink(field, link string) error {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: field, Reason: "must be an http or https URL"}
	}
	return nil
}
