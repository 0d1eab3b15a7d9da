package main

import (
	"log"

	api "mailpilot-backend/cmd/api"
	actionRepo "mailpilot-backend/internal/action/repository"
	actionUsecase "mailpilot-backend/internal/action/usecase"
	authDelivery "mailpilot-backend/internal/auth/delivery"
	emaildomain "mailpilot-backend/internal/email/domain"
	inboxUsecase "mailpilot-backend/internal/inbox/usecase"
	taskDelivery "mailpilot-backend/internal/task/delivery"
	taskRepo "mailpilot-backend/internal/task/repository"
	taskUsecase "mailpilot-backend/internal/task/usecase"
	"mailpilot-backend/pkg/ai"
	"mailpilot-backend/pkg/config"
	"mailpilot-backend/pkg/database"
	"mailpilot-backend/pkg/gmail"
	"mailpilot-backend/pkg/outlook"
	"mailpilot-backend/pkg/tokenstore"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Repositories: Postgres when configured, in-memory otherwise
	var (
		actions actionRepo.ActionRepository
		tasks   taskRepo.TaskRepository
		folders taskRepo.FolderRepository
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		actions = actionRepo.NewGormActionRepository(db)
		tasks = taskRepo.NewGormTaskRepository(db)
		folders = taskRepo.NewGormFolderRepository(db)
		log.Println("Using Postgres storage")
	} else {
		actions = actionRepo.NewMemoryActionRepository()
		tasks = taskRepo.NewMemoryTaskRepository()
		folders = taskRepo.NewMemoryFolderRepository(tasks)
		log.Println("DATABASE_URL not set, using in-memory storage")
	}

	// AI extractor
	extractor, err := ai.NewExtractorService(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		OpenAIModel:   cfg.OpenAIModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI service:", err)
	}
	log.Printf("AI service initialized with provider: %s", cfg.AIProvider)

	// OAuth configs per provider
	oauthConfigs := map[emaildomain.EmailSource]*oauth2.Config{
		emaildomain.SourceGmail: {
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				"https://www.googleapis.com/auth/gmail.modify",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
		emaildomain.SourceOutlook: {
			ClientID:     cfg.MicrosoftClientID,
			ClientSecret: cfg.MicrosoftClientSecret,
			RedirectURL:  cfg.MicrosoftRedirectURI,
			Endpoint:     microsoft.AzureADEndpoint("common"),
			Scopes: []string{
				"offline_access",
				"https://graph.microsoft.com/Mail.ReadWrite",
				"https://graph.microsoft.com/Mail.Send",
				"https://graph.microsoft.com/User.Read",
			},
		},
	}

	// Token store
	store, err := tokenstore.NewStore(cfg.TokenFile, oauthConfigs)
	if err != nil {
		log.Fatal("Failed to load token store:", err)
	}

	// Mail clients
	clients := map[emaildomain.EmailSource]emaildomain.MailClient{
		emaildomain.SourceGmail:   gmail.NewClient(),
		emaildomain.SourceOutlook: outlook.NewClient(),
	}

	// Usecases
	taskUc := taskUsecase.NewTaskUsecase(tasks, folders, extractor)
	actionUc := actionUsecase.NewActionUsecase(actions, extractor, clients, store)
	pipeline := inboxUsecase.NewPipeline(actions, taskUc, extractor, clients, store, cfg.AccountTimeout)

	// Background poller
	poller := inboxUsecase.NewPoller(pipeline, store,
		[]emaildomain.EmailSource{emaildomain.SourceGmail, emaildomain.SourceOutlook},
		cfg.PollInterval)
	poller.Start()
	defer poller.Stop()

	// HTTP server
	handler := api.NewHandler(
		pipeline,
		actionUc,
		taskDelivery.NewTaskHandler(taskUc),
		authDelivery.NewAuthHandler(store, oauthConfigs),
	)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
