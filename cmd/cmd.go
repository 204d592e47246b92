// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for config and the local cache.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the local cache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// authCommand handles account and session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the account and session",
		Commands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create a new account",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password (6+ characters)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "nickname",
						Aliases:  []string{"n"},
						Usage:    "Display name",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:  "login",
				Usage: "Sign in and persist the session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "logout",
				Usage: "Discard the persisted session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the current session state",
				Action: r.AuthStatus,
			},
		},
	}
}

// booksCommand handles book log operations
func booksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "books",
		Aliases: []string{"b"},
		Usage:   "Browse and manage the book log",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List books, with search and sort",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by title or author",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort key: date, title or author",
					},
					&cli.IntFlag{
						Name:  "page",
						Usage: "Zero-based page number",
					},
					&cli.IntFlag{
						Name:  "size",
						Usage: "Page size",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache instead of the server",
					},
				},
				Action: r.BooksList,
			},
			{
				Name:  "show",
				Usage: "Show one book in full",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.BooksShow,
			},
			{
				Name:  "add",
				Usage: "Add a book to the log",
				Flags: append(bookFieldFlags(true),
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Path to a cover image (10MB max)",
					},
				),
				Action: r.BooksAdd,
			},
			{
				Name:  "edit",
				Usage: "Edit an existing book",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(bookFieldFlags(false),
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Path to a replacement cover image (10MB max)",
					},
				),
				Action: r.BooksEdit,
			},
			{
				Name:  "delete",
				Usage: "Delete a book from the log",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
				Action: r.BooksDelete,
			},
			{
				Name:  "export",
				Usage: "Export the book list to a file or stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, markdown, yaml or json",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (stdout when omitted)",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by title or author",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort key: date, title or author",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Export from the local cache instead of the server",
					},
				},
				Action: r.BooksExport,
			},
			{
				Name:  "archive",
				Usage: "Write a full archive of the log to a directory, covers included",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "List format: csv, markdown, yaml or json",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Aliases: []string{"o"},
						Usage:   "Output directory (booklog_archive_{epoch} when omitted)",
					},
					&cli.BoolFlag{
						Name:  "covers",
						Usage: "Download cover images alongside the list",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent cover download workers (max 8)",
					},
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Filter by title or author",
					},
					&cli.StringFlag{
						Name:  "sort",
						Usage: "Sort key: date, title or author",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Archive from the local cache instead of the server",
					},
				},
				Action: r.BooksArchive,
			},
		},
	}
}

// bookFieldFlags builds the shared field flags for add and edit. Title and
// author are only required on add; edits keep unset fields as they were.
func bookFieldFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "title",
			Aliases:  []string{"t"},
			Usage:    "Book title",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "author",
			Aliases:  []string{"a"},
			Usage:    "Book author",
			Required: required,
		},
		&cli.StringFlag{
			Name:  "publisher",
			Usage: "Publisher",
		},
		&cli.StringFlag{
			Name:  "read-date",
			Usage: "Date finished, YYYY-MM-DD",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Short description",
		},
		&cli.StringFlag{
			Name:  "review",
			Usage: "Review text",
		},
		&cli.StringFlag{
			Name:  "before",
			Usage: "Thoughts before reading",
		},
		&cli.StringFlag{
			Name:  "after",
			Usage: "Thoughts after reading",
		},
		&cli.BoolFlag{
			Name:  "public",
			Usage: "Make the entry publicly visible",
			Value: true,
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive use.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal interface",
		Action:  r.TUI,
	}
}
