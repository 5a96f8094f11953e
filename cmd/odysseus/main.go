package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"odysseus/internal/bootstrap"
	progressiondto "odysseus/internal/modules/progression/dto"
	storydto "odysseus/internal/modules/story/dto"
	"odysseus/internal/platform/config"
	apperrors "odysseus/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, apperrors.UserMessage(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "odysseus",
		Short:         "Interactive AI storytelling in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(configPath, bootstrap.RunTUI)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(newAuthCmd(&configPath))
	root.AddCommand(newStoriesCmd(&configPath))
	root.AddCommand(newUsersCmd(&configPath))
	root.AddCommand(newPlayCmd(&configPath))
	return root
}

func withApp(configPath string, run func(*bootstrap.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cfg)
	if err != nil {
		return err
	}
	runErr := run(app)
	if err := app.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func newAuthCmd(configPath *string) *cobra.Command {
	auth := &cobra.Command{Use: "auth", Short: "Sign in and out"}

	var email, password string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				email = prompt(cmd.OutOrStdout(), in, "Email: ")
			}
			if password == "" {
				password = secret(cmd.OutOrStdout(), in, cmd.InOrStdin(), "Password: ")
			}
			return withApp(*configPath, func(app *bootstrap.App) error {
				user, err := app.AuthCLI.Login(context.Background(), email, password)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s <%s>\n", user.Name, user.Email)
				return nil
			})
		},
	}
	loginCmd.Flags().StringVar(&email, "email", "", "account email")
	loginCmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")

	var name, confirm string
	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if name == "" {
				name = prompt(cmd.OutOrStdout(), in, "Name: ")
			}
			if email == "" {
				email = prompt(cmd.OutOrStdout(), in, "Email: ")
			}
			if password == "" {
				password = secret(cmd.OutOrStdout(), in, cmd.InOrStdin(), "Password: ")
			}
			if confirm == "" {
				confirm = secret(cmd.OutOrStdout(), in, cmd.InOrStdin(), "Confirm password: ")
			}
			return withApp(*configPath, func(app *bootstrap.App) error {
				out, err := app.AuthCLI.Signup(context.Background(), name, email, password, confirm)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), out.Message)
				return nil
			})
		},
	}
	signupCmd.Flags().StringVar(&name, "name", "", "display name")
	signupCmd.Flags().StringVar(&email, "email", "", "account email")
	signupCmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	signupCmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (prompted when empty)")

	var wait time.Duration
	googleCmd := &cobra.Command{
		Use:   "google",
		Short: "Sign in with Google through the browser",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				if wait <= 0 {
					wait = app.Config.OAuth.WaitTimeout
				}
				ctx, stop := context.WithCancel(cmd.Context())
				defer stop()
				callbackURL, await, err := app.OAuth.Listen(ctx, wait)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "open this address in a browser:\n  %s\n", app.AuthCLI.GoogleLoginURL())
				_, _ = fmt.Fprintf(out, "waiting for the redirect on %s\n", callbackURL)
				result, err := await()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "signed in as %s, next view: %s\n", result.User.Name, result.Next)
				return nil
			})
		},
	}
	googleCmd.Flags().DurationVar(&wait, "wait", 0, "how long to wait for the redirect (default from config)")

	callbackCmd := &cobra.Command{
		Use:   "callback <redirect-url|access-token>",
		Short: "Complete an OAuth sign-in with the redirect copied from the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				result, err := app.AuthCLI.Callback(context.Background(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "next view: %s\n", result.Next)
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				status := app.AuthCLI.Status(context.Background())
				out := cmd.OutOrStdout()
				if !status.SignedIn {
					_, _ = fmt.Fprintln(out, "signed out")
					return nil
				}
				_, _ = fmt.Fprintf(out, "user=%s name=%s email=%s\n", status.User.ID, status.User.Name, status.User.Email)
				if status.Subject != "" {
					_, _ = fmt.Fprintf(out, "subject=%s verified=%t\n", status.Subject, status.Verified)
				}
				if !status.ExpiresAt.IsZero() {
					_, _ = fmt.Fprintf(out, "expires_at=%s expired=%t\n", status.ExpiresAt.Format(time.RFC3339), status.Expired)
				}
				return nil
			})
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				if err := app.AuthCLI.Logout(context.Background()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}

	auth.AddCommand(loginCmd, signupCmd, googleCmd, callbackCmd, statusCmd, logoutCmd)
	return auth
}

func newStoriesCmd(configPath *string) *cobra.Command {
	stories := &cobra.Command{Use: "stories", Short: "Manage stories"}

	var offline bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your stories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				list, err := app.StoryCLI.List(context.Background(), offline)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if list.Offline {
					_, _ = fmt.Fprintf(out, "offline copy, synced %s\n", list.SyncedAt.Format(time.RFC3339))
				}
				if len(list.Stories) == 0 {
					_, _ = fmt.Fprintln(out, "no stories")
					return nil
				}
				for _, s := range list.Stories {
					_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", s.ID, s.Status, s.Genre, s.Title)
				}
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&offline, "offline", false, "read the local index instead of the backend")

	showCmd := &cobra.Command{
		Use:   "show <story-id>",
		Short: "Print a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				story, err := app.StoryCLI.Get(context.Background(), args[0])
				if err != nil {
					return err
				}
				printStory(cmd.OutOrStdout(), story)
				return nil
			})
		},
	}

	input := storydto.NewCreateInput()
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Start a new story",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				created, err := app.StoryCLI.Create(context.Background(), input)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "created %s (%s)\n", created.Title, created.StoryID)
				if created.FirstPart != "" {
					_, _ = fmt.Fprintf(out, "\n%s\n", created.FirstPart)
				}
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&input.Genre, "genre", "", "genre")
	createCmd.Flags().StringVar(&input.Style, "style", "", "narrative style")
	createCmd.Flags().StringVar(&input.Ending, "ending", "", "desired ending")
	createCmd.Flags().StringVar(&input.InitialInput, "prompt", "", "opening prompt")
	createCmd.Flags().IntVar(&input.Brutality, "brutality", input.Brutality, "tone 0-10")
	createCmd.Flags().IntVar(&input.Emotion, "emotion", input.Emotion, "tone 0-10")
	createCmd.Flags().IntVar(&input.Suspense, "suspense", input.Suspense, "tone 0-10")
	createCmd.Flags().IntVar(&input.Humor, "humor", input.Humor, "tone 0-10")
	createCmd.Flags().IntVar(&input.Romance, "romance", input.Romance, "tone 0-10")
	createCmd.Flags().IntVar(&input.Intensity, "intensity", input.Intensity, "tone 0-10")
	createCmd.Flags().IntVar(&input.Mystery, "mystery", input.Mystery, "tone 0-10")

	deleteCmd := &cobra.Command{
		Use:   "delete <story-id>",
		Short: "Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				if err := app.StoryCLI.Delete(context.Background(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	var dir string
	exportCmd := &cobra.Command{
		Use:   "export <story-id>",
		Short: "Write a story to a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				out, err := app.StoryCLI.Export(context.Background(), args[0], dir)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %s\n", out.Path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVar(&dir, "dir", ".", "output directory")

	var copyLink bool
	shareCmd := &cobra.Command{
		Use:   "share [story-id]",
		Short: "Print a link inviting others to a story",
		Long:  "Print a link inviting others to a story. Without an id the current story is shared.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			}
			return withApp(*configPath, func(app *bootstrap.App) error {
				share, err := app.StoryCLI.Share(context.Background(), id)
				if err != nil {
					return err
				}
				copyText := clipboard.WriteAll
				if !copyLink {
					copyText = nil
				}
				printShare(cmd.OutOrStdout(), share, copyText)
				return nil
			})
		},
	}
	shareCmd.Flags().BoolVar(&copyLink, "copy", false, "also copy the text to the clipboard")

	collaborators := &cobra.Command{Use: "collaborators", Short: "Share stories"}
	addCmd := &cobra.Command{
		Use:   "add <story-id> <user-id>...",
		Short: "Add collaborators to a story",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				if err := app.StoryCLI.AddCollaborators(context.Background(), args[0], args[1:]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %d collaborator(s) to %s\n", len(args)-1, args[0])
				return nil
			})
		},
	}
	collaborators.AddCommand(addCmd)

	stories.AddCommand(listCmd, showCmd, createCmd, deleteCmd, exportCmd, shareCmd, collaborators)
	return stories
}

func newUsersCmd(configPath *string) *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Browse users"}
	users.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users that can be invited",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*configPath, func(app *bootstrap.App) error {
				members, err := app.StoryCLI.ListUsers(context.Background())
				if err != nil {
					return err
				}
				for _, m := range members {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.ID, m.Name, m.Email)
				}
				return nil
			})
		},
	})
	return users
}

func newPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play [story-id]",
		Short: "Continue a story line by line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID := ""
			if len(args) == 1 {
				storyID = args[0]
			}
			return withApp(*configPath, func(app *bootstrap.App) error {
				return play(cmd.Context(), app, storyID, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
}

func play(ctx context.Context, app *bootstrap.App, storyID string, stdin io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	status := ""
	if storyID != "" {
		story, err := app.StoryCLI.Get(ctx, storyID)
		if err != nil {
			return err
		}
		printStory(out, story)
		status = story.Status
	}
	snap, err := app.ProgressionCLI.Enter(ctx, storyID, status)
	if err != nil {
		return err
	}
	defer app.ProgressionCLI.Leave(ctx)
	if !snap.Ended {
		snap, err = app.ProgressionCLI.FetchOptions(ctx)
		reportStep(out, err)
	}

	in := bufio.NewReader(stdin)
	for {
		printSnapshot(out, snap)
		if snap.Ended {
			return nil
		}
		line, readErr := in.ReadString('\n')
		answer := strings.TrimSpace(line)
		switch {
		case answer == "q":
			return nil
		case answer == "r":
			snap, err = app.ProgressionCLI.Retry(ctx)
			if errors.Is(err, apperrors.ErrInvalidInput) {
				snap, err = app.ProgressionCLI.FetchOptions(ctx)
			}
		case answer != "":
			choice, convErr := strconv.Atoi(answer)
			if convErr != nil {
				_, _ = fmt.Fprintln(out, "enter an option number, r to retry or q to quit")
				break
			}
			snap, err = app.ProgressionCLI.Choose(ctx, choice)
			if err == nil && !snap.Ended {
				_, _ = fmt.Fprintf(out, "\n%s\n\n", snap.Segment)
				snap, err = app.ProgressionCLI.FetchOptions(ctx)
			}
		}
		reportStep(out, err)
		if readErr != nil {
			return nil
		}
	}
}

func reportStep(out io.Writer, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(out, "! %s\n", apperrors.UserMessage(err))
	}
}

func printSnapshot(out io.Writer, snap progressiondto.Snapshot) {
	switch {
	case snap.Ended:
		if snap.Segment != "" {
			_, _ = fmt.Fprintf(out, "\n%s\n", snap.Segment)
		}
		_, _ = fmt.Fprintln(out, "\nThe story has ended.")
	case snap.Warning != "":
		_, _ = fmt.Fprintf(out, "%s (r to fetch again, q to quit)\n", snap.Warning)
	case snap.Retryable:
		_, _ = fmt.Fprintln(out, "r to retry, q to quit")
	default:
		for i, option := range snap.Options {
			_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, option)
		}
		_, _ = fmt.Fprint(out, "> ")
	}
}

func printStory(out io.Writer, story storydto.StoryOutput) {
	_, _ = fmt.Fprintf(out, "# %s\n%s · %s\n\n%s\n\n", story.Title, story.Genre, story.Status, story.Plot)
}

// printShare prints the share text and, when copyText is set, copies it.
func printShare(out io.Writer, share storydto.ShareOutput, copyText func(string) error) {
	_, _ = fmt.Fprintln(out, share.Text)
	if copyText == nil {
		return
	}
	if err := copyText(share.Text); err != nil {
		_, _ = fmt.Fprintf(out, "! could not copy to clipboard: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(out, "Link copied to clipboard!")
}

func prompt(out io.Writer, in *bufio.Reader, label string) string {
	_, _ = fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

// secret reads a password without echo when stdin is a terminal and falls
// back to a plain line read for pipes and tests.
func secret(out io.Writer, in *bufio.Reader, stdin io.Reader, label string) string {
	f, ok := stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return prompt(out, in, label)
	}
	_, _ = fmt.Fprint(out, label)
	b, err := term.ReadPassword(int(f.Fd()))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
