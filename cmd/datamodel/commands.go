package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/export"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/mapper"
)

// run builds the app and runs fn with the command's context.
func (g *globals) run(cmd *cobra.Command, fn func(context.Context, *App) error) error {
	return g.withApp(cmd.Context(), fn)
}

func modelCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "model", Short: "Create, update, release and delete models"}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a model from a ModelDTO document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dto mapper.ModelDTO
			if err := readInput(file, os.Stdin, &dto); err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, a *App) error {
				u, err := a.Service.CreateModel(ctx, dto)
				if err != nil {
					return err
				}
				return g.print(map[string]string{"uri": u})
			})
		},
	}
	create.Flags().StringVarP(&file, "file", "f", "", "ModelDTO document (YAML or JSON, - for stdin)")

	update := &cobra.Command{
		Use:   "update <prefix>",
		Short: "Update a model from a ModelDTO document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dto mapper.ModelDTO
			if err := readInput(file, os.Stdin, &dto); err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, a *App) error {
				return a.Service.UpdateModel(ctx, args[0], dto)
			})
		},
	}
	update.Flags().StringVarP(&file, "file", "f", "", "ModelDTO document (YAML or JSON, - for stdin)")

	var status string
	release := &cobra.Command{
		Use:   "release <prefix> <version>",
		Short: "Release the draft of a model as a version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				u, err := a.Service.CreateRelease(ctx, args[0], args[1], mapper.Status(status))
				if err != nil {
					return err
				}
				return g.print(map[string]string{"uri": u})
			})
		},
	}
	release.Flags().StringVar(&status, "status", string(mapper.StatusValid), "Status of the released resources")

	var version string
	get := &cobra.Command{
		Use:   "get <prefix>",
		Short: "Print a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				info, err := a.Service.GetModel(ctx, args[0], version)
				if err != nil {
					return err
				}
				return g.print(info)
			})
		},
	}
	get.Flags().StringVar(&version, "version", "", "Released version (default: draft)")

	del := &cobra.Command{
		Use:   "delete <prefix>",
		Short: "Delete the draft of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				return a.Service.DeleteModel(ctx, args[0])
			})
		},
	}

	cmd.AddCommand(create, update, release, get, del, exportCmd(g))
	return cmd
}

func exportCmd(g *globals) *cobra.Command {
	var version, format, profile, output string
	cmd := &cobra.Command{
		Use:   "export <prefix> [identifier]",
		Short: "Write a model or one of its resources as RDF",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := export.FormatForPath(output)
			if format != "" {
				var err error
				if f, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			identifier := ""
			if len(args) == 2 {
				identifier = args[1]
			}
			opts := export.Options{Format: f, Profile: export.Profile(profile)}

			return g.run(cmd, func(ctx context.Context, a *App) error {
				if output == "" {
					return a.Service.ExportModel(ctx, args[0], version, identifier, g.out, opts)
				}
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				if err := a.Service.ExportModel(ctx, args[0], version, identifier, file, opts); err != nil {
					file.Close()
					return err
				}
				return file.Close()
			})
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "Released version (default: draft)")
	cmd.Flags().StringVar(&format, "format", "", "turtle, ntriples or jsonld (default: from --output extension, else turtle)")
	cmd.Flags().StringVar(&profile, "profile", string(export.ProfilePublic), "full or public")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// resourceKinds maps the --kind flag to the resource kind.
var resourceKinds = map[string]mapper.Kind{
	"class":          mapper.KindClass,
	"node-shape":     mapper.KindNodeShape,
	"attribute":      mapper.KindAttribute,
	"association":    mapper.KindAssociation,
	"property-shape": mapper.KindPropertyShape,
}

func parseKind(s string) (mapper.Kind, error) {
	k, ok := resourceKinds[s]
	if !ok {
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
	return k, nil
}

// writeResource decodes the DTO for kind from file and creates or updates
// the resource.
func writeResource(ctx context.Context, a *App, prefix string, kind mapper.Kind, file string, create bool) (string, error) {
	switch kind {
	case mapper.KindClass:
		var dto mapper.ClassDTO
		if err := readInput(file, os.Stdin, &dto); err != nil {
			return "", err
		}
		if create {
			return a.Service.CreateClass(ctx, prefix, dto)
		}
		return "", a.Service.UpdateClass(ctx, prefix, dto)
	case mapper.KindNodeShape:
		var dto mapper.NodeShapeDTO
		if err := readInput(file, os.Stdin, &dto); err != nil {
			return "", err
		}
		if create {
			return a.Service.CreateNodeShape(ctx, prefix, dto)
		}
		return "", a.Service.UpdateNodeShape(ctx, prefix, dto)
	case mapper.KindAttribute, mapper.KindAssociation:
		var dto mapper.ResourceDTO
		if err := readInput(file, os.Stdin, &dto); err != nil {
			return "", err
		}
		switch {
		case create && kind == mapper.KindAttribute:
			return a.Service.CreateAttribute(ctx, prefix, dto)
		case create:
			return a.Service.CreateAssociation(ctx, prefix, dto)
		case kind == mapper.KindAttribute:
			return "", a.Service.UpdateAttribute(ctx, prefix, dto)
		default:
			return "", a.Service.UpdateAssociation(ctx, prefix, dto)
		}
	default:
		var dto mapper.PropertyShapeDTO
		if err := readInput(file, os.Stdin, &dto); err != nil {
			return "", err
		}
		if create {
			return a.Service.CreatePropertyShape(ctx, prefix, dto)
		}
		return "", a.Service.UpdatePropertyShape(ctx, prefix, dto)
	}
}

func resourceCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "resource", Short: "Manage classes, shapes, attributes and associations"}

	var file, kindFlag string
	for _, create := range []bool{true, false} {
		use, short := "update <prefix>", "Update a resource from a DTO document"
		if create {
			use, short = "create <prefix>", "Create a resource from a DTO document"
		}
		sub := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := parseKind(kindFlag)
				if err != nil {
					return err
				}
				return g.run(cmd, func(ctx context.Context, a *App) error {
					u, err := writeResource(ctx, a, args[0], kind, file, create)
					if err != nil || u == "" {
						return err
					}
					return g.print(map[string]string{"uri": u})
				})
			},
		}
		sub.Flags().StringVarP(&file, "file", "f", "", "DTO document (YAML or JSON, - for stdin)")
		sub.Flags().StringVarP(&kindFlag, "kind", "k", "class", "class, node-shape, attribute, association or property-shape")
		cmd.AddCommand(sub)
	}

	var version string
	get := &cobra.Command{
		Use:   "get <prefix> <identifier>",
		Short: "Print a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				info, err := a.Service.GetResource(ctx, args[0], version, args[1])
				if err != nil {
					return err
				}
				return g.print(info)
			})
		},
	}
	get.Flags().StringVar(&version, "version", "", "Released version (default: draft)")

	effective := &cobra.Command{
		Use:   "properties <prefix> <node-shape>",
		Short: "Print the direct and inherited properties of a node shape",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				props, err := a.Service.EffectiveProperties(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return g.print(props)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <prefix> <identifier>",
		Short: "Delete an unreferenced resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				return a.Service.DeleteResource(ctx, args[0], args[1])
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <prefix> <identifier> <new-identifier>",
		Short: "Rename a resource and every reference to it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				u, err := a.Service.RenameResource(ctx, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return g.print(map[string]string{"uri": u})
			})
		},
	}

	copyShape := &cobra.Command{
		Use:   "copy <source-prefix> <identifier> <target-prefix> [new-identifier]",
		Short: "Copy a property shape into another profile",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			newID := ""
			if len(args) == 4 {
				newID = args[3]
			}
			return g.run(cmd, func(ctx context.Context, a *App) error {
				u, err := a.Service.CopyPropertyShape(ctx, args[0], args[1], args[2], newID)
				if err != nil {
					return err
				}
				return g.print(map[string]string{"uri": u})
			})
		},
	}

	cmd.AddCommand(get, effective, del, rename, copyShape)
	return cmd
}

func restrictionCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "restriction", Short: "Manage OWL restrictions of classes"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <prefix> <class> <property-uri>",
			Short: "Restrict a class on a property",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.run(cmd, func(ctx context.Context, a *App) error {
					return a.Service.AddClassRestriction(ctx, args[0], args[1], args[2])
				})
			},
		},
		&cobra.Command{
			Use:   "remove <prefix> <class> <property-uri>",
			Short: "Remove the restriction on a property",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.run(cmd, func(ctx context.Context, a *App) error {
					return a.Service.RemoveClassRestriction(ctx, args[0], args[1], args[2])
				})
			},
		},
	)
	return cmd
}

func propertyRefCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "property-ref", Short: "Manage direct property links of node shapes"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <prefix> <node-shape> <property-uri>...",
			Short: "Link property shapes to a node shape",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.run(cmd, func(ctx context.Context, a *App) error {
					return a.Service.AddPropertyReferences(ctx, args[0], args[1], args[2:])
				})
			},
		},
		&cobra.Command{
			Use:   "remove <prefix> <node-shape> <property-uri>",
			Short: "Unlink a property shape from a node shape",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return g.run(cmd, func(ctx context.Context, a *App) error {
					return a.Service.RemovePropertyReference(ctx, args[0], args[1], args[2])
				})
			},
		},
	)
	return cmd
}

func positionsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{Use: "positions", Short: "Manage diagram positions"}

	var file string
	save := &cobra.Command{
		Use:   "save <prefix>",
		Short: "Replace the diagram positions of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var positions []mapper.Position
			if err := readInput(file, os.Stdin, &positions); err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, a *App) error {
				return a.Service.SavePositions(ctx, args[0], positions)
			})
		},
	}
	save.Flags().StringVarP(&file, "file", "f", "", "Position list (YAML or JSON, - for stdin)")

	get := &cobra.Command{
		Use:   "get <prefix>",
		Short: "Print the diagram positions of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, a *App) error {
				positions, err := a.Service.GetPositions(ctx, args[0])
				if err != nil {
					return err
				}
				return g.print(positions)
			})
		},
	}

	cmd.AddCommand(save, get)
	return cmd
}
