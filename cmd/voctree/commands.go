package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/viant/voctree/model"
)

var (
	seedDataset  string
	seedCaptions string
	queryN       int
	queryLabeled bool
)

var seedCmd = &cobra.Command{
	Use:   "seed IMAGE...",
	Short: "Store images and their metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			for _, path := range args {
				m, err := readImage(path)
				if err != nil {
					return err
				}
				im := model.Image{ID: model.NewID(), Dataset: seedDataset, Captions: seedCaptions, Mat: m}
				if err := a.service.SeedImage(cmd.Context(), im); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), im.ID)
			}
			return nil
		})
	},
}

var trainCmd = &cobra.Command{
	Use:       "train [caption|image]",
	Short:     "Rebuild the caption tree, the image tree or both",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{captionPrefix, imagePrefix},
	RunE: func(cmd *cobra.Command, args []string) error {
		which := ""
		if len(args) == 1 {
			which = args[0]
			if which != captionPrefix && which != imagePrefix {
				return fmt.Errorf("unknown tree %q", which)
			}
		}
		return withApp(cmd.Context(), func(a *app) error {
			if which != imagePrefix {
				if err := a.captions.Train(cmd.Context()); err != nil {
					return fmt.Errorf("train caption tree: %w", err)
				}
			}
			if which != captionPrefix {
				if err := a.images.Train(cmd.Context()); err != nil {
					return fmt.Errorf("train image tree: %w", err)
				}
			}
			return nil
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query TEXT",
	Short: "Find images matching a caption",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			var (
				ids []model.ImageID
				err error
			)
			if queryLabeled {
				ids, err = a.service.QueryLabeledIms(cmd.Context(), args[0], queryN)
			} else {
				ids, err = a.service.QueryAllIms(cmd.Context(), args[0], queryN)
			}
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		})
	},
}

var pathCmd = &cobra.Command{
	Use:   "path ID",
	Short: "Print where an image matrix is stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("image id: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.service.GetImPath(id))
			return nil
		})
	},
}

type imageView struct {
	ID       string `json:"id"`
	Dataset  string `json:"dataset"`
	Captions string `json:"captions"`
	Path     string `json:"path"`
}

var imageCmd = &cobra.Command{
	Use:   "image ID",
	Short: "Print image metadata as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("image id: %w", err)
		}
		return withApp(cmd.Context(), func(a *app) error {
			im, err := a.service.GetImMetadata(cmd.Context(), id)
			if err != nil {
				return err
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(imageView{
				ID:       im.ID.String(),
				Dataset:  im.Dataset,
				Captions: im.Captions,
				Path:     a.service.GetImPath(im.ID),
			})
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedDataset, "dataset", "", "dataset tag stored with the images")
	seedCmd.Flags().StringVar(&seedCaptions, "captions", "", "caption text stored with the images")
	queryCmd.Flags().IntVarP(&queryN, "n", "n", 10, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryLabeled, "labeled", false, "only search images by their own captions")
}
