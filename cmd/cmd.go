// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tracks",
		Usage:  "List every track in the library",
		Flags:  outputFlags(),
		Action: r.Tracks,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List playlists",
		Flags:  outputFlags(),
		Action: r.Playlists,
	}
}

func entriesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "entries",
		Usage: "List playlist entries",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Only show entries of this playlist ID",
			},
		),
		Action: r.Entries,
	}
}

func sharedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "shared",
		Usage:     "List the entries of a shared playlist",
		ArgsUsage: "<share token>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "token"},
		},
		Flags:  outputFlags(),
		Action: r.Shared,
	}
}

func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "devices",
		Usage:  "List registered devices",
		Flags:  outputFlags(),
		Action: r.Devices,
	}
}

func trackCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "track",
		Usage:     "Fetch a store track",
		ArgsUsage: "<store id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Track,
	}
}

func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "album",
		Usage:     "Fetch a store album with its tracks",
		ArgsUsage: "<album id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Album,
	}
}

func artistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "artist",
		Usage:     "Fetch a store artist",
		ArgsUsage: "<artist id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags:  outputFlags(),
		Action: r.Artist,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the catalog",
		ArgsUsage: "<query>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:    "max",
				Aliases: []string{"n"},
				Usage:   "Maximum number of results",
				Value:   50,
			},
		),
		Action: r.Search,
	}
}

func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "Resolve a signed stream URL for a track",
		ArgsUsage: "<track id>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "device",
				Aliases: []string{"d"},
				Usage:   "Device ID (defaults to credentials.device_id)",
			},
		),
		Action: r.Stream,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the library or a playlist to a file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, md or text",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path (file base for csv, directory for md)",
			},
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Export this playlist ID instead of the library",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download cover art with Markdown exports",
			},
		},
		Action: r.Export,
	}
}

func dumpCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Fetch every library feed as one JSON document",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the dump to this file instead of stdout",
			},
		},
		Action: r.Dump,
	}
}

func exportAllCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export-all",
		Usage: "Export every playlist concurrently into one directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, md or text",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: gmusic_export_<epoch>)",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Only export these playlist IDs",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent export workers (max 10)",
				Value:   5,
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download cover art with Markdown exports",
			},
		},
		Action: r.ExportAll,
	}
}
