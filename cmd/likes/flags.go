package main

import (
	"github.com/urfave/cli/v2"

	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/likes"
)

func pageFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "page", Value: 1},
		&cli.IntFlag{Name: "page-size", Value: cfg.Likes.PageSize},
	}
}

// itemFlags describe the snapshot stored with a like.
func itemFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title"},
		&cli.StringFlag{Name: "description"},
		&cli.Float64Flag{Name: "price"},
		&cli.StringFlag{Name: "currency"},
		&cli.StringFlag{Name: "image"},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{Name: "make"},
		&cli.StringFlag{Name: "model"},
		&cli.IntFlag{Name: "year"},
		&cli.Float64Flag{Name: "rating"},
		&cli.StringFlag{Name: "provider"},
		&cli.StringFlag{Name: "author"},
		&cli.StringFlag{Name: "location"},
		&cli.StringFlag{Name: "status"},
	}
}

// flagReader is the part of *cli.Context itemData needs.
type flagReader interface {
	String(name string) string
	Float64(name string) float64
	Int(name string) int
}

// itemDataFromFlags builds the snapshot variant for t.
func itemDataFromFlags(t likes.ItemType, f flagReader) likes.ItemData {
	switch t {
	case likes.ItemTypeProduct:
		return likes.ProductData{
			Title:       f.String("title"),
			Description: f.String("description"),
			Price:       f.Float64("price"),
			Currency:    f.String("currency"),
			Image:       f.String("image"),
			Category:    f.String("category"),
			Make:        f.String("make"),
			Model:       f.String("model"),
			Year:        f.Int("year"),
			Rating:      f.Float64("rating"),
			Status:      f.String("status"),
		}
	case likes.ItemTypeService:
		return likes.ServiceData{
			Title:       f.String("title"),
			Description: f.String("description"),
			Price:       f.Float64("price"),
			Image:       f.String("image"),
			Category:    f.String("category"),
			Provider:    f.String("provider"),
			Rating:      f.Float64("rating"),
			Status:      f.String("status"),
		}
	case likes.ItemTypePost:
		return likes.PostData{
			Title:       f.String("title"),
			Description: f.String("description"),
			Image:       f.String("image"),
			Author:      f.String("author"),
			Status:      f.String("status"),
		}
	case likes.ItemTypeStore:
		return likes.StoreData{
			Title:       f.String("title"),
			Description: f.String("description"),
			Image:       f.String("image"),
			Location:    f.String("location"),
			Rating:      f.Float64("rating"),
			Status:      f.String("status"),
		}
	}
	return nil
}
