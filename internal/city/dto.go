// AngelaMos | 2026
// dto.go

package city

type CityRequest struct {
	Name            string `json:"name"            validate:"max=120"`
	DescriptionHTML string `json:"descriptionHtml" validate:"max=100000"`
}

type cityEnvelope struct {
	OK   bool  `json:"ok"`
	City *City `json:"city"`
}

type citiesEnvelope struct {
	OK     bool   `json:"ok"`
	Cities []City `json:"cities"`
}

type deleteEnvelope struct {
	OK              bool   `json:"ok"`
	Message         string `json:"message"`
	RemovedListings int64  `json:"removedListings"`
}
