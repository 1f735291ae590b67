package normalize

import "github.com/iliyamo/ticket-compare/internal/model"

// ticketmaster maps a Discovery API v2 event.  Only the first
// classification, venue, price range and promoter are considered.
func ticketmaster(ev map[string]any) model.Event {
	class := first(ev, "classifications")
	venue := first(ev, "_embedded.venues")
	start := obj(ev, "dates.start")
	price := first(ev, "priceRanges")
	promoter := obj(ev, "promoter")
	if promoter == nil {
		promoter = first(ev, "promoters")
	}

	description := str(ev, "info")
	if description == nil {
		description = str(ev, "pleaseNote")
	}

	var ageRestricted *bool
	if flag(ev, "ageRestrictions.legalAgeEnforced") {
		t := true
		ageRestricted = &t
	}

	accessibility := obj(ev, "accessibility")

	return model.Event{
		ID:         text(ev, "id", ""),
		DataSource: string(model.SourceTicketmaster),
		Name:       text(ev, "name", model.DefaultEventName),
		Details: &model.Details{
			Description: description,
			Type:        text(ev, "type", model.DefaultEventType),
			Category:    str(class, "segment.name"),
			Genre:       str(class, "genre.name"),
			SubGenre:    str(class, "subGenre.name"),
			URL:         str(ev, "url"),
			Images:      images(ev),
			Date: model.EventDate{
				Start:          str(start, "localDate"),
				Time:           str(start, "localTime"),
				DateTime:       str(start, "dateTime"),
				Timezone:       str(start, "timezone"),
				TBA:            flag(start, "dateTBA"),
				TBD:            flag(start, "dateTBD"),
				NoSpecificTime: flag(start, "noSpecificTime"),
			},
			Venue: model.Venue{
				ID:          str(venue, "id"),
				Name:        str(venue, "name"),
				Address:     str(venue, "address.line1"),
				City:        str(venue, "city.name"),
				State:       str(venue, "state.name"),
				StateCode:   str(venue, "state.stateCode"),
				PostalCode:  str(venue, "postalCode"),
				Country:     str(venue, "country.name"),
				CountryCode: str(venue, "country.countryCode"),
				Location: model.Location{
					Latitude:  str(venue, "location.latitude"),
					Longitude: str(venue, "location.longitude"),
				},
				Timezone: str(venue, "timezone"),
				URL:      str(venue, "url"),
			},
			Pricing: model.Pricing{
				Currency: text(price, "currency", model.DefaultCurrency),
				Min:      num(price, "min"),
				Max:      num(price, "max"),
				Type:     str(price, "type"),
			},
			Sales: model.Sales{
				Public: model.SaleWindow{
					StartDateTime: str(ev, "sales.public.startDateTime"),
					EndDateTime:   str(ev, "sales.public.endDateTime"),
				},
				Presales: presales(ev),
			},
			Status:          text(ev, "dates.status.code", model.DefaultStatus),
			Accessibility:   accessibility,
			AgeRestrictions: ageRestricted,
			Seatmap:         str(ev, "seatmap.staticUrl"),
			Promoter: model.Promoter{
				ID:   str(promoter, "id"),
				Name: str(promoter, "name"),
			},
			Attractions: attractions(ev),
		},
	}
}

func images(ev map[string]any) []model.Image {
	raw := list(ev, "images")
	out := make([]model.Image, 0, len(raw))
	for _, img := range raw {
		out = append(out, model.Image{
			URL:      str(img, "url"),
			Width:    integer(img, "width"),
			Height:   integer(img, "height"),
			Ratio:    str(img, "ratio"),
			Fallback: flag(img, "fallback"),
		})
	}
	return out
}

func presales(ev map[string]any) []model.Presale {
	raw := list(ev, "sales.presales")
	out := make([]model.Presale, 0, len(raw))
	for _, p := range raw {
		out = append(out, model.Presale{
			Name:          str(p, "name"),
			StartDateTime: str(p, "startDateTime"),
			EndDateTime:   str(p, "endDateTime"),
		})
	}
	return out
}

func attractions(ev map[string]any) []model.Attraction {
	raw := list(ev, "_embedded.attractions")
	out := make([]model.Attraction, 0, len(raw))
	for _, a := range raw {
		out = append(out, model.Attraction{
			ID:    text(a, "id", ""),
			Name:  text(a, "name", ""),
			Type:  str(a, "type"),
			URL:   str(a, "url"),
			Image: str(first(a, "images"), "url"),
		})
	}
	return out
}
