package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"sfu-globe/pkg/client"
	"sfu-globe/pkg/feed"
	"sfu-globe/pkg/logger"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "feedtool",
		Usage: "talk to a sfu-globe server from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "server base URL",
				EnvVars: []string{"SFU_GLOBE_SERVER"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "JWT returned by the login command",
				EnvVars: []string{"SFU_GLOBE_TOKEN"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "print client logs",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "log in and print a token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
				},
				Action: func(c *cli.Context) error {
					api, err := newClient(c)
					if err != nil {
						return err
					}
					user, err := api.Session().Login(c.Context, c.String("email"), c.String("password"))
					if err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "logged in as %s (%s)\n", user.FullName, user.ID)
					fmt.Println(api.Session().Token())
					return nil
				},
			},
			{
				Name:  "clubs",
				Usage: "list clubs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "case-insensitive search term"},
				},
				Action: func(c *cli.Context) error {
					api, err := authed(c)
					if err != nil {
						return err
					}
					dir := client.NewClubDirectory(api)
					if err := dir.Load(c.Context); err != nil {
						return err
					}
					for _, club := range dir.Search(c.String("q")) {
						fmt.Printf("%s  %-40s %4d members  %s\n", club.ID, club.Name, club.Members, club.MeetingTime)
					}
					return nil
				},
			},
			{
				Name:      "join",
				Usage:     "join a club",
				ArgsUsage: "<club_id>",
				Action: func(c *cli.Context) error {
					api, clubID, err := clubArg(c)
					if err != nil {
						return err
					}
					created, err := api.Join(c.Context, clubID)
					if err != nil {
						return err
					}
					if !created {
						fmt.Println("already a member")
					}
					return nil
				},
			},
			{
				Name:      "leave",
				Usage:     "leave a club",
				ArgsUsage: "<club_id>",
				Action: func(c *cli.Context) error {
					api, clubID, err := clubArg(c)
					if err != nil {
						return err
					}
					removed, err := api.Leave(c.Context, clubID)
					if err != nil {
						return err
					}
					if !removed {
						fmt.Println("not a member")
					}
					return nil
				},
			},
			{
				Name:      "send",
				Usage:     "send a message to a club",
				ArgsUsage: "<club_id> <text>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ws", Usage: "send over the realtime connection instead of HTTP"},
				},
				Action: func(c *cli.Context) error {
					api, clubID, err := clubArg(c)
					if err != nil {
						return err
					}
					text := strings.Join(c.Args().Tail(), " ")
					if !c.Bool("ws") {
						_, err = api.SendMessage(c.Context, clubID, text)
						return err
					}
					rt, err := api.Connect(c.Context)
					if err != nil {
						return err
					}
					defer rt.Close()
					return rt.Send(c.Context, feed.MessagesTopic(clubID), text)
				},
			},
			{
				Name:      "tail",
				Usage:     "print a club's messages and membership changes as they arrive",
				ArgsUsage: "<club_id>",
				Action:    tail,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(c *cli.Context) (*client.Client, error) {
	var opts []client.Option
	if c.Bool("debug") {
		l, err := logger.New("debug", false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, client.WithLogger(l))
	}
	return client.New(c.String("server"), opts...), nil
}

func authed(c *cli.Context) (*client.Client, error) {
	token := c.String("token")
	if token == "" {
		return nil, errors.New("--token (or SFU_GLOBE_TOKEN) is required; run the login command first")
	}
	api, err := newClient(c)
	if err != nil {
		return nil, err
	}
	if _, err := api.Session().Restore(c.Context, token); err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	return api, nil
}

func clubArg(c *cli.Context) (*client.Client, uuid.UUID, error) {
	clubID, err := uuid.Parse(c.Args().First())
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid club id %q", c.Args().First())
	}
	api, err := authed(c)
	return api, clubID, err
}

// tail 同时运行成员关系同步和消息面板，直到 Ctrl-C
func tail(c *cli.Context) error {
	api, clubID, err := clubArg(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := api.Connect(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	memberships := client.NewMembershipSync(api, rt)
	memberships.OnChange(func(joined map[uuid.UUID]struct{}) {
		_, ok := joined[clubID]
		fmt.Printf("-- memberships: %d clubs, member of this club: %v\n", len(joined), ok)
	})

	panel := client.NewMessagingPanel(api, rt, clubID)
	panel.OnMessage(func(m client.PanelMessage) {
		fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), m.SenderName, m.Content)
	})

	errCh := make(chan error, 2)
	go func() { errCh <- memberships.Run(ctx) }()
	go func() { errCh <- panel.Run(ctx) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	case <-ctx.Done():
	}
	return nil
}
