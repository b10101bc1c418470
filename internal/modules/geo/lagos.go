package geo

import "openseat/internal/types"

// LagosTables returns a fresh copy of the Lagos reference data.
func LagosTables() Tables {
	return Tables{
		Coordinates: map[string]types.Point{
			"Ogba":     {Lat: 6.6388, Lng: 3.3374},
			"Ikeja":    {Lat: 6.6018, Lng: 3.3515},
			"Surulere": {Lat: 6.4969, Lng: 3.3579},
			"Yaba":     {Lat: 6.5159, Lng: 3.3786},
			"Festac":   {Lat: 6.4655, Lng: 3.2850},
			"Berger":   {Lat: 6.6524, Lng: 3.3538},
			"Ketu":     {Lat: 6.5990, Lng: 3.3886},
			"Oshodi":   {Lat: 6.5449, Lng: 3.3365},
			"Mushin":   {Lat: 6.5284, Lng: 3.3418},
			"Agege":    {Lat: 6.6156, Lng: 3.3139},

			"VI":       {Lat: 6.4281, Lng: 3.4219},
			"Lekki":    {Lat: 6.4474, Lng: 3.5497},
			"Ikoyi":    {Lat: 6.4520, Lng: 3.4340},
			"Marina":   {Lat: 6.4501, Lng: 3.3958},
			"CMS":      {Lat: 6.4508, Lng: 3.3916},
			"Obalende": {Lat: 6.4416, Lng: 3.4074},
			"Ajah":     {Lat: 6.4668, Lng: 3.5665},

			"Ikorodu": {Lat: 6.6194, Lng: 3.5051},
		},
		Adjacency: map[string][]string{
			"Ogba":     {"Ikeja", "Agege", "Berger"},
			"Ikeja":    {"Ogba", "Agege", "Oshodi", "Berger"},
			"Agege":    {"Ogba", "Ikeja"},
			"Berger":   {"Ogba", "Ikeja", "Ketu"},
			"Ketu":     {"Berger", "Ikeja"},
			"Oshodi":   {"Ikeja", "Mushin", "Surulere", "Yaba"},
			"Mushin":   {"Oshodi", "Surulere", "Yaba"},
			"Surulere": {"Oshodi", "Mushin", "Yaba"},
			"Yaba":     {"Surulere", "Oshodi", "Mushin"},
			"Festac":   {"Oshodi"},
			"VI":       {"Lekki", "Ikoyi", "Obalende"},
			"Lekki":    {"VI", "Ikoyi", "Ajah"},
			"Ikoyi":    {"VI", "Lekki", "Obalende", "Marina"},
			"Ajah":     {"Lekki"},
			"Marina":   {"CMS", "Obalende", "Ikoyi"},
			"CMS":      {"Marina", "Obalende"},
			"Obalende": {"Marina", "CMS", "Ikoyi", "VI"},
			"Ikorodu":  {},
		},
		Groups: map[string][]string{
			"western_mainland": {"Ogba", "Ikeja", "Agege", "Berger"},
			"eastern_mainland": {"Festac", "Surulere", "Yaba", "Oshodi", "Mushin"},
			"southern_island":  {"VI", "Lekki", "Ajah"},
			"northern_island":  {"Ikoyi", "Marina", "CMS", "Obalende"},
		},
		Regions: map[string][]string{
			"mainland": {"Ogba", "Ikeja", "Surulere", "Yaba", "Festac", "Oshodi", "Mushin", "Agege", "Berger", "Ketu"},
			"island":   {"VI", "Lekki", "Ikoyi", "Marina", "CMS", "Obalende", "Ajah"},
		},
	}
}

// DefaultLagos builds the reference used by the API server.
func DefaultLagos() *Reference {
	return NewReference(LagosTables())
}
