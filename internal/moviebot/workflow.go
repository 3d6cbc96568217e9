package moviebot

import (
	"context"
	"errors"
	"html"
	"strings"

	"golang.org/x/text/language"
)

const DefaultSearchLimit = 5

// EventKind distinguishes chat messages from button presses.
type EventKind int

const (
	EventMessage EventKind = iota + 1
	EventCallback
)

// Event is the minimal envelope the transport extracts from an update.
type Event struct {
	Kind    EventKind
	ChatID  int64
	UserID  int64
	HasUser bool
	// Text is the message text for EventMessage.
	Text string
	// CallbackData is the opaque result id for EventCallback.
	CallbackData string
	// CallbackID lets the transport acknowledge the button press.
	CallbackID string
}

type EngineOptions struct {
	Credentials      CredentialStore
	Provider         MetadataProvider
	Store            DocumentStore
	Messenger        Messenger
	Locale           language.Tag
	HelpPage         string
	BotUsername      string
	PageDomainSuffix string
	SearchLimit      int
}

// Engine turns events into ordered calls against the credential store,
// the metadata provider and the document store.
type Engine struct {
	creds        CredentialStore
	provider     MetadataProvider
	store        DocumentStore
	messenger    Messenger
	runner       *Runner
	locale       language.Tag
	transcripts  *Transcripts
	helpPage     string
	botUsername  string
	domainSuffix string
	searchLimit  int
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Credentials == nil || opts.Provider == nil || opts.Store == nil || opts.Messenger == nil {
		return nil, errors.New("moviebot: credentials, provider, store and messenger are required")
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.English
	}
	domainSuffix := strings.TrimSpace(opts.PageDomainSuffix)
	if domainSuffix == "" {
		domainSuffix = NotionDomainSuffix
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	return &Engine{
		creds:        opts.Credentials,
		provider:     opts.Provider,
		store:        opts.Store,
		messenger:    opts.Messenger,
		runner:       NewRunner(opts.Messenger),
		locale:       locale,
		transcripts:  TranscriptsFor(locale),
		helpPage:     opts.HelpPage,
		botUsername:  strings.TrimPrefix(strings.TrimSpace(opts.BotUsername), "@"),
		domainSuffix: domainSuffix,
		searchLimit:  limit,
	}, nil
}

// Handle routes one event to its unit of work. A non-nil result is always
// an *Escalation.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	if ev.Kind == EventCallback {
		return e.SelectResult(ctx, ev)
	}
	cmd, args := ParseCommand(ev.Text, e.botUsername)
	switch cmd {
	case CommandHelp:
		return e.Help(ctx, ev)
	case CommandStart:
		return e.Initialize(ctx, ev)
	case CommandSettings:
		return e.ShowSettings(ctx, ev)
	case CommandSetIMDbToken:
		return e.SetMetadataToken(ctx, ev, args)
	case CommandSetNotionToken:
		return e.SetStoreToken(ctx, ev, args)
	case CommandCreateNotionDB:
		return e.CreateCollection(ctx, ev, args)
	default:
		return e.Search(ctx, ev)
	}
}

func (e *Engine) Help(ctx context.Context, ev Event) error {
	return e.runner.Run(ctx, ev.ChatID, "help", func(ctx context.Context) error {
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.HelpMessage(e.helpPage), HTML: true})
	})
}

func (e *Engine) Initialize(ctx context.Context, ev Event) error {
	return e.runner.Run(ctx, ev.ChatID, "initialize", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		if err := e.creds.EnsureExists(ctx, userID); err != nil {
			return FeedbackWithCause(e.transcripts.DatabaseError, "ensure_credentials", SystemCredentials, err)
		}
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.Welcome})
	})
}

func (e *Engine) ShowSettings(ctx context.Context, ev Event) error {
	return e.runner.Run(ctx, ev.ChatID, "show_settings", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		creds, err := e.loadCredentials(ctx, userID)
		if err != nil {
			return err
		}
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.SettingsSummary(creds)})
	})
}

func (e *Engine) SetMetadataToken(ctx context.Context, ev Event, input string) error {
	return e.runner.Run(ctx, ev.ChatID, "set_metadata_token", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		token := strings.TrimSpace(input)
		if token == "" {
			return Feedback(e.transcripts.InputEmptyIMDbToken)
		}
		if err := e.setField(ctx, userID, FieldMetadataToken, token); err != nil {
			return err
		}
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.IMDbTokenSetAs(token)})
	})
}

func (e *Engine) SetStoreToken(ctx context.Context, ev Event, input string) error {
	return e.runner.Run(ctx, ev.ChatID, "set_store_token", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		token := strings.TrimSpace(input)
		if token == "" {
			return Feedback(e.transcripts.InputEmptyNotionToken)
		}
		if err := e.setField(ctx, userID, FieldStoreToken, token); err != nil {
			return err
		}
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.NotionTokenSetAs(token)})
	})
}

func (e *Engine) CreateCollection(ctx context.Context, ev Event, input string) error {
	return e.runner.Run(ctx, ev.ChatID, "create_collection", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		ref := strings.TrimSpace(input)
		if ref == "" {
			return Feedback(e.transcripts.InputEmptyNotionPage)
		}
		creds, err := e.loadCredentials(ctx, userID)
		if err != nil {
			return err
		}
		if creds.StoreToken == "" {
			return Feedback(e.transcripts.NeedNotionTokenFirst)
		}
		pageID, ok := ParsePageReference(ref, e.domainSuffix)
		if !ok {
			return Feedback(e.transcripts.InvalidNotionPageURL)
		}
		collectionID, err := e.store.CreateCollection(ctx, creds.StoreToken, pageID)
		if err != nil {
			return classifyRemote(e.transcripts, err)
		}
		if err := e.setField(ctx, userID, FieldCollectionID, collectionID); err != nil {
			return err
		}
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.NotionDatabaseCreated})
	})
}

func (e *Engine) Search(ctx context.Context, ev Event) error {
	return e.runner.Run(ctx, ev.ChatID, "search", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		creds, err := e.loadCredentials(ctx, userID)
		if err != nil {
			return err
		}
		if err := checkStoreReady(e.transcripts, creds); err != nil {
			return err
		}
		query := strings.TrimSpace(ev.Text)
		if query == "" {
			return Feedback(e.transcripts.InputEmptyKeyword)
		}
		results, err := e.provider.Search(ctx, creds.MetadataToken, query, e.searchLimit)
		if err != nil {
			return classifyRemote(e.transcripts, err)
		}
		if len(results) > e.searchLimit {
			results = results[:e.searchLimit]
		}
		if len(results) == 0 {
			return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: e.transcripts.NoSearchResultHTML(), HTML: true})
		}
		// Most relevant last, so it ends up lowest in the chat.
		for i := len(results) - 1; i >= 0; i-- {
			if err := e.send(ctx, e.searchResultMessage(ev.ChatID, results[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

func (e *Engine) SelectResult(ctx context.Context, ev Event) error {
	return e.runner.Run(ctx, ev.ChatID, "select_result", func(ctx context.Context) error {
		userID, err := requireUser(ev)
		if err != nil {
			return err
		}
		id := strings.TrimSpace(ev.CallbackData)
		if id == "" {
			return Internal("select_result", SystemTransport, errors.New("callback carries no result id"))
		}
		creds, err := e.loadCredentials(ctx, userID)
		if err != nil {
			return err
		}
		if err := checkStoreReady(e.transcripts, creds); err != nil {
			return err
		}
		item, err := e.provider.Detail(ctx, creds.MetadataToken, id, e.locale)
		if err != nil {
			return classifyRemote(e.transcripts, err)
		}
		if err := e.store.InsertRecord(ctx, creds.StoreToken, creds.CollectionID, item); err != nil {
			return classifyRemote(e.transcripts, err)
		}
		text := e.transcripts.AddedToMovieList(html.EscapeString(item.Title))
		return e.send(ctx, OutboundMessage{ChatID: ev.ChatID, Text: text, HTML: true})
	})
}

func (e *Engine) searchResultMessage(chatID int64, result SearchResult) OutboundMessage {
	text := e.transcripts.SearchResultLink(
		html.EscapeString(TitleLink(result.ID)),
		html.EscapeString(result.Title),
		html.EscapeString(result.Description),
	)
	return OutboundMessage{
		ChatID: chatID,
		Text:   text,
		HTML:   true,
		Button: &CallbackButton{Text: e.transcripts.AddToMovieList, Data: result.ID},
	}
}

func (e *Engine) loadCredentials(ctx context.Context, userID int64) (UserCredentials, error) {
	creds, ok, err := e.creds.Get(ctx, userID)
	if err != nil {
		return UserCredentials{}, FeedbackWithCause(e.transcripts.DatabaseError, "get_credentials", SystemCredentials, err)
	}
	if !ok {
		return UserCredentials{}, Feedback(e.transcripts.ConfigureAgain)
	}
	return creds, nil
}

func (e *Engine) setField(ctx context.Context, userID int64, field CredentialField, value string) error {
	updated, err := e.creds.SetField(ctx, userID, field, value)
	if err != nil {
		return FeedbackWithCause(e.transcripts.DatabaseError, "set_"+field.String(), SystemCredentials, err)
	}
	if !updated {
		return Feedback(e.transcripts.ConfigureAgain)
	}
	return nil
}

func (e *Engine) send(ctx context.Context, msg OutboundMessage) error {
	if err := e.messenger.Send(ctx, msg); err != nil {
		return Internal("send_message", SystemTransport, err)
	}
	return nil
}

func requireUser(ev Event) (int64, error) {
	if !ev.HasUser {
		return 0, Internal("resolve_user", SystemTransport, errors.New("event has no originating user"))
	}
	return ev.UserID, nil
}
