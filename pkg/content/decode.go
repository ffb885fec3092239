package content

import (
	"github.com/surrealdb/sitecontent/pkg/coerce"
	"github.com/surrealdb/sitecontent/pkg/docstore"
	"github.com/surrealdb/sitecontent/pkg/models"
)

// Decoders never fail: drifted or missing fields take their zero value.

func decodeOrder(v any) int {
	n := coerce.Int(v, 0)
	if n < 0 {
		return 0
	}
	return n
}

func decodeList(v any) []string {
	l := coerce.Strings(v)
	if l == nil {
		return []string{}
	}
	return l
}

func decodeProject(d docstore.Document) models.Project {
	return models.Project{
		ID:           d.ID,
		Order:        decodeOrder(d.Get(models.FieldOrder)),
		Title:        coerce.String(d.Get(models.FieldTitle)),
		Description:  coerce.String(d.Get(models.FieldDescription)),
		Technologies: decodeList(d.Get(models.FieldTechnologies)),
		Features:     decodeList(d.Get(models.FieldFeatures)),
		ImageURL:     coerce.String(d.Get(models.FieldImageURL)),
		Link:         coerce.String(d.Get(models.FieldLink)),
		UpdatedAt:    coerce.Time(d.Get(models.FieldUpdatedAt)),
	}
}

func decodeService(d docstore.Document) models.Service {
	return models.Service{
		ID:          d.ID,
		Order:       decodeOrder(d.Get(models.FieldOrder)),
		Title:       coerce.String(d.Get(models.FieldTitle)),
		Description: coerce.String(d.Get(models.FieldDescription)),
		Icon:        coerce.String(d.Get(models.FieldIcon)),
		Features:    decodeList(d.Get(models.FieldFeatures)),
		IsActive:    coerce.Bool(d.Get(models.FieldIsActive)),
		UpdatedAt:   coerce.Time(d.Get(models.FieldUpdatedAt)),
	}
}

func subDocument(v any) docstore.Document {
	m, _ := v.(map[string]any)
	return docstore.Document{Fields: m}
}

func decodeCompanyInfo(d docstore.Document) models.CompanyInfo {
	return models.CompanyInfo{
		YearsExperience:    coerce.Int(d.Get("yearsExperience"), 0),
		ProjectsCompleted:  coerce.Int(d.Get("projectsCompleted"), 0),
		ClientSatisfaction: coerce.Int(d.Get("clientSatisfaction"), 0),
		AboutUs:            coerce.String(d.Get("aboutUs")),
		Mission:            coerce.String(d.Get("mission")),
		Vision:             coerce.String(d.Get("vision")),
		UpdatedAt:          coerce.Time(d.Get(models.FieldUpdatedAt)),
	}
}

func decodeContactInfo(d docstore.Document) models.ContactInfo {
	social := subDocument(d.Get("socialMedia"))
	hours := subDocument(d.Get("businessHours"))
	return models.ContactInfo{
		Email:   coerce.String(d.Get("email")),
		Phone:   coerce.String(d.Get("phone")),
		Address: coerce.String(d.Get("address")),
		City:    coerce.String(d.Get("city")),
		Country: coerce.String(d.Get("country")),
		MapURL:  coerce.String(d.Get("mapUrl")),
		SocialMedia: models.SocialMedia{
			Facebook:  coerce.String(social.Get("facebook")),
			Instagram: coerce.String(social.Get("instagram")),
			LinkedIn:  coerce.String(social.Get("linkedin")),
			Twitter:   coerce.String(social.Get("twitter")),
			GitHub:    coerce.String(social.Get("github")),
		},
		BusinessHours: models.BusinessHours{
			Weekdays: coerce.String(hours.Get("weekdays")),
			Saturday: coerce.String(hours.Get("saturday")),
			Sunday:   coerce.String(hours.Get("sunday")),
		},
		UpdatedAt: coerce.Time(d.Get(models.FieldUpdatedAt)),
	}
}
