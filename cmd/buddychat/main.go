package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/joho/godotenv"

	"github.com/easeplatform/buddy-chat/backend/internal/models"
	"github.com/easeplatform/buddy-chat/backend/pkg/chatclient"
)

// app wires the client controllers behind the terminal commands
type app struct {
	api      *chatclient.APIClient
	auth     *chatclient.AuthClient
	profiles *chatclient.ProfileManager
	matcher  *chatclient.BuddyMatcher
	list     *chatclient.ConversationListController
	thread   *chatclient.MessageThreadController
	bridge   *chatclient.Bridge
	wsURL    string
}

// terminalNotifier prints transient notifications inline
type terminalNotifier struct{}

func (terminalNotifier) Notify(message, level string) {
	fmt.Printf("\n[%s] %s\n", level, message)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func clearScreen() {
	switch runtime.GOOS {
	case "windows":
		cmd := exec.Command("cmd", "/c", "cls")
		cmd.Stdout = os.Stdout
		cmd.Run()
	default:
		cmd := exec.Command("clear")
		cmd.Stdout = os.Stdout
		cmd.Run()
	}
}

func (a *app) requireLogin() bool {
	if a.auth.GetCurrentUser() == nil {
		fmt.Println("You need to log in first. Try: login <email> <password>")
		return false
	}
	return true
}

// connect starts the per-user controllers and the change feed after login
func (a *app) connect(user *models.User) {
	a.thread = chatclient.NewMessageThreadController(a.api, user.ID, terminalNotifier{})
	a.thread.OnChange(func(msgs []chatclient.ChatMessage) {
		if len(msgs) == 0 {
			return
		}
		last := msgs[len(msgs)-1]
		marker := ""
		if last.Pending {
			marker = " (sending...)"
		}
		who := "them"
		if last.SenderID == user.ID {
			who = "you"
		}
		fmt.Printf("[%s] %s%s\n", who, last.Content, marker)
	})

	token := ""
	if session := a.currentSessionToken(); session != "" {
		token = session
	}
	handlers := chatclient.RouteEvents(a.thread, a.list, terminalNotifier{})
	bridge, err := chatclient.DialBridge(context.Background(), a.wsURL, token, user.ID, handlers)
	if err != nil {
		fmt.Println("Live updates are unavailable:", err)
		return
	}
	a.bridge = bridge
}

func (a *app) disconnect() {
	if a.bridge != nil {
		a.bridge.Close()
		a.bridge = nil
	}
	if a.thread != nil {
		a.thread.Close()
		a.thread = nil
	}
}

func (a *app) currentSessionToken() string {
	// the API client carries the token; the bridge needs it for the
	// websocket query parameter since headers are awkward to set there
	return a.api.Token()
}

func (a *app) register(args []string) {
	if len(args) < 4 {
		fmt.Println("Usage: register <email> <password> <first-name> <last-name>")
		return
	}
	user, err := a.auth.Signup(context.Background(), args[0], args[1], args[2], args[3])
	if err != nil {
		fmt.Println("Registration failed:", err)
		return
	}
	fmt.Println("Welcome,", user.DisplayName()+"!")
	a.connect(user)
}

func (a *app) login(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: login <email> <password>")
		return
	}
	user, err := a.auth.Signin(context.Background(), args[0], args[1])
	if err != nil {
		fmt.Println("Login failed:", err)
		return
	}
	fmt.Println("Welcome back,", user.DisplayName()+"!")
	a.connect(user)
}

func (a *app) logout() {
	a.disconnect()
	if err := a.auth.Signout(context.Background()); err != nil {
		fmt.Println("Logout failed:", err)
		return
	}
	fmt.Println("Logged out.")
}

func (a *app) showProfile() {
	if !a.requireLogin() {
		return
	}
	profile, err := a.profiles.Load(context.Background())
	if err != nil {
		fmt.Println("Could not load your profile:", err)
		return
	}
	if profile == nil {
		fmt.Println("No profile yet. Create one with: profile-set <display-name> [bio]")
		return
	}
	fmt.Println("Display name :", profile.DisplayName)
	fmt.Println("Bio          :", profile.Bio)
	fmt.Println("Seeking buddy:", profile.IsSeekingBuddy)
	fmt.Println("Available    :", profile.IsAvailableAsBuddy)
}

func (a *app) saveProfile(args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: profile-set <display-name> [bio...]")
		return
	}
	req := models.ProfileRequest{
		DisplayName:        args[0],
		Bio:                strings.Join(args[1:], " "),
		IsSeekingBuddy:     true,
		IsAvailableAsBuddy: true,
	}
	if _, err := a.profiles.CreateOrUpdate(context.Background(), req); err != nil {
		fmt.Println("Could not save your profile:", err)
		return
	}
	fmt.Println("Profile saved.")
}

func (a *app) findBuddy() {
	if !a.requireLogin() {
		return
	}
	result, err := a.matcher.Match(context.Background())
	if err != nil || result == nil || !result.Matched {
		return
	}
	fmt.Println("Matched with", result.CandidateID)
}

func (a *app) showConversations() {
	if !a.requireLogin() {
		return
	}
	views, err := a.list.Load(context.Background())
	if err != nil {
		fmt.Println("Could not load conversations:", err)
		return
	}
	if len(views) == 0 {
		fmt.Println("No conversations yet. Try: find-buddy")
		return
	}
	for i, v := range views {
		fmt.Printf("%2d. %-24s last activity %s\n", i+1, v.CounterpartName,
			v.Conversation.LastActivity.Format("Jan 2 15:04"))
	}
}

func (a *app) openChat(args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: chat <number from 'conversations'>")
		return
	}
	n, err := strconv.Atoi(args[0])
	views := a.list.Conversations()
	if err != nil || n < 1 || n > len(views) {
		fmt.Println("Pick a conversation number from 'conversations'.")
		return
	}
	view, ok := a.list.Select(views[n-1].CounterpartID)
	if !ok {
		fmt.Println("That conversation is gone; reload with 'conversations'.")
		return
	}
	msgs, err := a.thread.Open(context.Background(), view.CounterpartID)
	if err != nil {
		fmt.Println("Could not open the conversation:", err)
		return
	}
	fmt.Printf("--- Chat with %s ---\n", view.CounterpartName)
	me := a.auth.GetCurrentUser().ID
	for _, m := range msgs {
		who := "them"
		if m.SenderID == me {
			who = "you"
		}
		fmt.Printf("[%s] %s\n", who, m.Content)
	}
	fmt.Println("Send with: send <message>. Leave with: close")
}

func (a *app) send(args []string) {
	if !a.requireLogin() {
		return
	}
	if a.list.Active() == nil {
		fmt.Println("Open a conversation first: chat <number>")
		return
	}
	content := strings.Join(args, " ")
	if _, err := a.thread.Send(context.Background(), content); err != nil {
		fmt.Println("Send failed:", err)
		if draft := a.thread.Draft(); draft != "" {
			fmt.Println("Your message was kept:", draft)
		}
	}
}

func (a *app) closeChat() {
	if a.thread != nil {
		a.thread.Close()
	}
	a.list.Deselect()
	fmt.Println("Left the conversation.")
}

func printHelp() {
	fmt.Println("\n=== Buddy Chat Commands ===")
	fmt.Printf("%-15s %s\n", "register", "register <email> <password> <first> <last>")
	fmt.Printf("%-15s %s\n", "login", "login <email> <password>")
	fmt.Printf("%-15s %s\n", "logout", "sign out and clear the saved session")
	fmt.Printf("%-15s %s\n", "profile", "show your buddy profile")
	fmt.Printf("%-15s %s\n", "profile-set", "profile-set <display-name> [bio...]")
	fmt.Printf("%-15s %s\n", "find-buddy", "find an available buddy and pair up")
	fmt.Printf("%-15s %s\n", "conversations", "list your conversations, newest activity first")
	fmt.Printf("%-15s %s\n", "chat", "chat <number> - open a conversation")
	fmt.Printf("%-15s %s\n", "send", "send <message> - message the open conversation")
	fmt.Printf("%-15s %s\n", "close", "leave the open conversation")
	fmt.Printf("%-15s %s\n", "clear", "clear the screen")
	fmt.Printf("%-15s %s\n", "exit", "quit")
}

func (a *app) executor(input string) {
	input = strings.TrimSpace(input)
	if input == "" {
		return
	}
	args := strings.Fields(input)
	cmd := strings.ToLower(args[0])
	args = args[1:]

	switch cmd {
	case "register":
		a.register(args)
	case "login":
		a.login(args)
	case "logout":
		a.logout()
	case "profile":
		a.showProfile()
	case "profile-set":
		a.saveProfile(args)
	case "find-buddy", "match":
		a.findBuddy()
	case "conversations":
		a.showConversations()
	case "chat":
		a.openChat(args)
	case "send":
		a.send(args)
	case "close":
		a.closeChat()
	case "help":
		printHelp()
	case "clear":
		clearScreen()
	case "exit":
		a.disconnect()
		os.Exit(0)
	default:
		fmt.Println("Unknown command. Type 'help' for a list of commands.")
	}
}

func completer(d prompt.Document) []prompt.Suggest {
	suggestions := []prompt.Suggest{
		{Text: "register", Description: "Create an account"},
		{Text: "login", Description: "Sign in"},
		{Text: "logout", Description: "Sign out"},
		{Text: "profile", Description: "Show your buddy profile"},
		{Text: "profile-set", Description: "Create or update your profile"},
		{Text: "find-buddy", Description: "Find and pair with a buddy"},
		{Text: "conversations", Description: "List your conversations"},
		{Text: "chat", Description: "Open a conversation"},
		{Text: "send", Description: "Send a message"},
		{Text: "close", Description: "Leave the open conversation"},
		{Text: "help", Description: "Show commands"},
		{Text: "exit", Description: "Quit"},
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func main() {
	godotenv.Load()

	baseURL := getEnv("BUDDYCHAT_API_URL", "http://localhost:8080")
	wsURL := getEnv("BUDDYCHAT_WS_URL", "ws://localhost:8080/api/v1/ws")

	api := chatclient.NewAPIClient(baseURL)
	sessions, err := chatclient.NewSessionStore("")
	if err != nil {
		log.Fatal("could not open session storage:", err)
	}
	auth, err := chatclient.NewAuthClient(api, sessions)
	if err != nil {
		log.Fatal("could not restore session:", err)
	}

	a := &app{
		api:      api,
		auth:     auth,
		profiles: chatclient.NewProfileManager(api),
		matcher:  chatclient.NewBuddyMatcher(api, terminalNotifier{}),
		list:     chatclient.NewConversationListController(api),
		wsURL:    wsURL,
	}

	auth.OnAuthStateChange(func(event chatclient.AuthEvent, user *models.User) {
		if event == chatclient.SignedOut {
			fmt.Println("Signed out. Use 'login' or 'register' to continue.")
		}
	})

	fmt.Println("Welcome to Buddy Chat")
	fmt.Println("Type 'help' to see available commands")
	if user := auth.GetCurrentUser(); user != nil {
		fmt.Println("Signed in as", user.DisplayName())
		a.connect(user)
	}

	p := prompt.New(
		a.executor,
		completer,
		prompt.OptionPrefix("> "),
		prompt.OptionTitle("Buddy Chat"),
	)
	p.Run()
}
