package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(ParsePagination(c))
	})

	cases := []struct {
		query string
		want  Pagination
	}{
		{"", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Pagination{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=-5", Pagination{Page: 1, Limit: 20, Offset: 0}},
		{"?page=abc&limit=500", Pagination{Page: 1, Limit: 100, Offset: 0}},
	}

	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
		require.NoError(t, err)

		var got Pagination
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		assert.Equal(t, tc.want, got, tc.query)
	}
}

func TestPaginationMeta(t *testing.T) {
	meta := Pagination{Page: 2, Limit: 10, Offset: 10}.Meta(42)
	assert.Equal(t, 2, meta["current_page"])
	assert.Equal(t, 10, meta["items_per_page"])
	assert.Equal(t, int64(42), meta["total_items"])
}
