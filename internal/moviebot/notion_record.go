package moviebot

import (
	"time"
)

// Property names of the movie-list collection.
const (
	PropTitle         = "Title"
	PropType          = "Type"
	PropYear          = "Year"
	PropReleaseDate   = "Release Date"
	PropRuntime       = "Runtime"
	PropPlot          = "Plot"
	PropDirector      = "Director"
	PropStar          = "Star"
	PropGenre         = "Genre"
	PropCountry       = "Country"
	PropLanguage      = "Language"
	PropContentRating = "Content Rating"
	PropRating        = "IMDb Rating"
	PropLink          = "IMDb Link"
)

const (
	collectionTitle = "Movie List"
	collectionIcon  = "🎬"
	recordDateFmt   = "2006-01-02"
)

// CollectionSchema is the fixed property schema every movie list gets.
func CollectionSchema() map[string]any {
	multiSelect := func() map[string]any {
		return map[string]any{
			"type":         "multi_select",
			"multi_select": map[string]any{"options": []any{}},
		}
	}
	return map[string]any{
		PropTitle:         map[string]any{"title": map[string]any{}},
		PropType:          map[string]any{"select": map[string]any{"options": []any{}}},
		PropYear:          map[string]any{"number": map[string]any{}},
		PropReleaseDate:   map[string]any{"date": map[string]any{}},
		PropRuntime:       map[string]any{"number": map[string]any{}},
		PropPlot:          map[string]any{"rich_text": map[string]any{}},
		PropDirector:      multiSelect(),
		PropStar:          multiSelect(),
		PropGenre:         multiSelect(),
		PropCountry:       multiSelect(),
		PropLanguage:      multiSelect(),
		PropContentRating: map[string]any{"rich_text": map[string]any{}},
		PropRating:        map[string]any{"number": map[string]any{}},
		PropLink:          map[string]any{"url": map[string]any{}},
	}
}

func createCollectionBody(parentPageID string) map[string]any {
	return map[string]any{
		"parent": map[string]any{
			"type":    "page_id",
			"page_id": parentPageID,
		},
		"icon": map[string]any{
			"type":  "emoji",
			"emoji": collectionIcon,
		},
		"title": []any{
			map[string]any{
				"type": "text",
				"text": map[string]any{"content": collectionTitle, "link": nil},
			},
		},
		"properties": CollectionSchema(),
	}
}

// RecordProperties maps an item onto collection properties. Absent fields
// are omitted entirely; Title and the link are always written.
func RecordProperties(item NormalizedItem) map[string]any {
	props := map[string]any{
		PropTitle: titleProperty(item.Title),
	}
	if item.Category != "" {
		props[PropType] = selectProperty(item.Category)
	}
	if item.Year != nil {
		props[PropYear] = numberProperty(*item.Year)
	}
	if item.ReleaseDate != nil {
		props[PropReleaseDate] = dateProperty(*item.ReleaseDate)
	}
	if item.RuntimeMinutes != nil {
		props[PropRuntime] = numberProperty(*item.RuntimeMinutes)
	}
	if item.Plot != "" {
		props[PropPlot] = richTextProperty(item.Plot)
	}
	if len(item.Directors) > 0 {
		props[PropDirector] = multiSelectProperty(item.Directors)
	}
	if len(item.Stars) > 0 {
		props[PropStar] = multiSelectProperty(item.Stars)
	}
	if len(item.Genres) > 0 {
		props[PropGenre] = multiSelectProperty(item.Genres)
	}
	if len(item.Countries) > 0 {
		props[PropCountry] = multiSelectProperty(item.Countries)
	}
	if len(item.Languages) > 0 {
		props[PropLanguage] = multiSelectProperty(item.Languages)
	}
	if item.ContentRating != "" {
		props[PropContentRating] = richTextProperty(item.ContentRating)
	}
	if item.Rating != nil {
		props[PropRating] = numberProperty(*item.Rating)
	}
	props[PropLink] = map[string]any{"url": item.Link}
	return props
}

func insertRecordBody(collectionID string, item NormalizedItem) map[string]any {
	body := map[string]any{
		"parent": map[string]any{
			"type":        "database_id",
			"database_id": collectionID,
		},
		"properties": RecordProperties(item),
	}
	if item.ImageURL != "" {
		body["cover"] = map[string]any{
			"type":     "external",
			"external": map[string]any{"url": item.ImageURL},
		}
	}
	return body
}

func titleProperty(content string) map[string]any {
	return map[string]any{
		"type": "title",
		"title": []any{
			map[string]any{"type": "text", "text": map[string]any{"content": content}},
		},
	}
}

func richTextProperty(content string) map[string]any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"type": "text", "text": map[string]any{"content": content}},
		},
	}
}

func numberProperty[T int | float64](n T) map[string]any {
	return map[string]any{"number": n}
}

func selectProperty(name string) map[string]any {
	return map[string]any{
		"type":   "select",
		"select": map[string]any{"name": name},
	}
}

func multiSelectProperty(names []string) map[string]any {
	options := make([]any, 0, len(names))
	for _, name := range names {
		options = append(options, map[string]any{"name": name})
	}
	return map[string]any{
		"type":         "multi_select",
		"multi_select": options,
	}
}

func dateProperty(date time.Time) map[string]any {
	return map[string]any{
		"date": map[string]any{"start": date.Format(recordDateFmt)},
	}
}
