package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sakif/blog/internal/service"
)

const titleWidth = 48

func newPostsCmd(a *app) *cobra.Command {
	posts := &cobra.Command{
		Use:   "posts",
		Short: "Inspect posts",
	}

	var page int
	list := &cobra.Command{
		Use:   "list",
		Short: "Print one page of posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.NewPostService(db.Posts(), a.logger, service.WithPageSize(a.cfg.PageSize))
			result, err := svc.ListPage(cmd.Context(), service.ParsePage(strconv.Itoa(page)))
			if err != nil {
				return err
			}

			if len(result.Items) == 0 {
				fmt.Fprintf(a.out, "no posts on page %d\n", result.Page)
				return nil
			}

			table := tablewriter.NewWriter(a.out)
			table.SetAutoWrapText(false)
			table.SetHeader([]string{"#", "ID", "Title", "Owner", "Created"})
			offset := (result.Page - 1) * svc.PageSize()
			for i, p := range result.Items {
				table.Append([]string{
					strconv.Itoa(offset + i + 1),
					p.ID,
					truncate(p.Title, titleWidth),
					p.OwnerID,
					p.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table.Render()

			if result.HasNextPage {
				fmt.Fprintf(a.out, "more: blogctl posts list --page %d\n", result.NextPage)
			}
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 1, "page number, starting at 1")

	posts.AddCommand(list)
	return posts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
