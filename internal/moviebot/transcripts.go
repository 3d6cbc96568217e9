package moviebot

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Transcripts holds every user-visible string for one locale.
type Transcripts struct {
	Tag language.Tag

	Welcome               string
	DatabaseError         string
	ConfigureAgain        string
	InputEmptyIMDbToken   string
	InputEmptyNotionToken string
	InputEmptyNotionPage  string
	InputEmptyKeyword     string
	NotionDatabaseCreated string
	NeedNotionTokenFirst  string
	NoSearchResult        string
	AddToMovieList        string
	NotSet                string
	HintTitle             string
	HintHelp              string
	HintStart             string
	HintSettings          string
	HintSetIMDbToken      string
	HintSetNotionToken    string
	HintCreateNotionDB    string
	InvalidNotionPageURL  string

	imdbTokenSetAs        string
	notionTokenSetAs      string
	addedToMovieList      string
	cannotReachServer     string
	parseErrorMessage     string
	parseResponse         string
	settingsSummary       string
	helpMessage           string
	usageWithPercent      string
	usageWithoutPercent   string
	searchResultLink      string
	searchResultLinkTitle string
}

var englishTranscripts = &Transcripts{
	Tag: language.English,

	Welcome:               "Welcome to work with me! But we need to configure something first.\nPlease use:\n\n/help to check more details.",
	DatabaseError:         "I got a bad memory...\nPlease let me stay alone for a while.",
	ConfigureAgain:        "I'm so sorry I forgot who you are, can we /start all over again? 🥺",
	InputEmptyIMDbToken:   "IMDb API token should follow the /set_imdb_token command.\n e.g. /set_imdb_token abc123",
	InputEmptyNotionToken: "Notion token should follow the /set_notion_token command.\n e.g. /set_notion_token abc123",
	InputEmptyNotionPage:  "Notion page ID or its link should follow the /create_notion_db command.\n e.g. /create_notion_db abc123",
	InputEmptyKeyword:     "Please send me the title",
	NotionDatabaseCreated: "Movie list database ID token has been created",
	NeedNotionTokenFirst:  "Please /set_notion_token first.",
	NoSearchResult:        "No result was found.",
	AddToMovieList:        "Add to Movie List",
	NotSet:                "not set",
	HintTitle:             "Please config required settings.",
	HintHelp:              "/help - display this text.",
	HintStart:             "/start - start to do some work with me.",
	HintSettings:          "/settings - show your tokens information.",
	HintSetIMDbToken: "/set_imdb_token `token` - set the IMDb API token for getting movie information. " +
		"If not set, the shared default API token will be used. This token can easily reach the " +
		"limit of 100 requests per day, please set your own API token.",
	HintSetNotionToken:   "/set_notion_token `token` - set the Notion internal integration token.",
	HintCreateNotionDB:   "/create_notion_db `page link or id` - create a Notion database as your movie list.",
	InvalidNotionPageURL: "Invalid Notion Page Url",

	imdbTokenSetAs:        "IMDb token has been set as: %s",
	notionTokenSetAs:      "Notion token has been set as: %s",
	addedToMovieList:      "<b>%s</b> has been added to your movie list successfully!",
	cannotReachServer:     "There's something wrong when I was requesting data from %s",
	parseErrorMessage:     "Can't understand what's wrong with %s...",
	parseResponse:         "%s told me nonsense...",
	settingsSummary:       "Tokens:\nIMDb token: %s\nNotion token: %s\nNotion database ID: %s",
	helpMessage:           "<b>Supported commands:</b>\n\n%s\n\nPlease visit <a href=\"%s\"><b>this page</b></a> to get more help.",
	usageWithPercent:      "Usage: %.2f%% (%d / %d)",
	usageWithoutPercent:   "Usage: %d / %d",
	searchResultLink:      "<a href=\"%s\"><b>%s</b></a>",
	searchResultLinkTitle: "%s %s",
}

var (
	catalogTags = []language.Tag{language.English}
	catalogs    = map[language.Tag]*Transcripts{language.English: englishTranscripts}
	matcher     = language.NewMatcher(catalogTags)
)

// TranscriptsFor returns the closest supported catalog for tag. English is
// the only catalog today; the lookup stays so another can be added without
// touching callers.
func TranscriptsFor(tag language.Tag) *Transcripts {
	_, idx, _ := matcher.Match(tag)
	if idx < 0 || idx >= len(catalogTags) {
		return englishTranscripts
	}
	return catalogs[catalogTags[idx]]
}

// ParseLocale parses a BCP 47 tag, falling back to English.
func ParseLocale(raw string) language.Tag {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return language.English
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return language.English
	}
	return tag
}

// LocaleCode is the two-letter code used in provider URLs.
func LocaleCode(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

func (t *Transcripts) IMDbTokenSetAs(token string) string {
	return fmt.Sprintf(t.imdbTokenSetAs, token)
}

func (t *Transcripts) NotionTokenSetAs(token string) string {
	return fmt.Sprintf(t.notionTokenSetAs, token)
}

func (t *Transcripts) AddedToMovieList(title string) string {
	return fmt.Sprintf(t.addedToMovieList, title)
}

func (t *Transcripts) CannotReachServer(system string) string {
	return fmt.Sprintf(t.cannotReachServer, system)
}

func (t *Transcripts) ParseErrorMessageFailed(system string) string {
	return fmt.Sprintf(t.parseErrorMessage, system)
}

func (t *Transcripts) ParseResponseFailed(system string) string {
	return fmt.Sprintf(t.parseResponse, system)
}

func (t *Transcripts) SearchResultLink(link, title, description string) string {
	label := title
	if description != "" {
		label = fmt.Sprintf(t.searchResultLinkTitle, title, description)
	}
	return fmt.Sprintf(t.searchResultLink, link, label)
}

func (t *Transcripts) NoSearchResultHTML() string {
	return "<b>" + t.NoSearchResult + "</b>"
}

// ValueOrNotSet renders an empty credential as the placeholder.
func (t *Transcripts) ValueOrNotSet(value string) string {
	if value == "" {
		return t.NotSet
	}
	return value
}

func (t *Transcripts) SettingsSummary(c UserCredentials) string {
	return fmt.Sprintf(t.settingsSummary,
		t.ValueOrNotSet(c.MetadataToken),
		t.ValueOrNotSet(c.StoreToken),
		t.ValueOrNotSet(c.CollectionID),
	)
}

func (t *Transcripts) HelpMessage(helpPage string) string {
	commands := strings.Join([]string{
		t.HintHelp,
		t.HintStart,
		t.HintSettings,
		t.HintSetIMDbToken,
		t.HintSetNotionToken,
		t.HintCreateNotionDB,
	}, "\n")
	return fmt.Sprintf(t.helpMessage, commands, helpPage)
}

func (t *Transcripts) Usage(u Usage) string {
	if u.Maximum == 0 {
		return fmt.Sprintf(t.usageWithoutPercent, u.Count, u.Maximum)
	}
	percent := float64(u.Count) / float64(u.Maximum) * 100
	return fmt.Sprintf(t.usageWithPercent, percent, u.Count, u.Maximum)
}
