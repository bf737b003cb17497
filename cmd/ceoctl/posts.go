package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/ceo-assistant/internal/model"
)

var (
	postTitle   string
	postContent string
	postDate    string
	postStatus  string
)

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsAddCmd)
	postsCmd.AddCommand(postsStatusCmd)
	postsCmd.AddCommand(postsDeleteCmd)

	postsListCmd.Flags().StringVar(&postStatus, "status", "", "Filter by status: scheduled, posted or open")

	postsAddCmd.Flags().StringVar(&postTitle, "title", "", "Post title")
	postsAddCmd.Flags().StringVar(&postContent, "content", "", "Post body")
	postsAddCmd.Flags().StringVar(&postDate, "date", "", "Publication day (YYYY-MM-DD)")
	postsAddCmd.Flags().StringVar(&postStatus, "status", "", "Initial status (default scheduled)")
	_ = postsAddCmd.MarkFlagRequired("title")
	_ = postsAddCmd.MarkFlagRequired("date")
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage LinkedIn posts",
	Long: `Manage planned LinkedIn posts.

Examples:
  # List scheduled posts
  ceoctl posts list --status scheduled

  # Plan a post
  ceoctl posts add --title "New features released" --date 2024-03-20 \
    --content "We are excited to introduce our latest product update..."

  # Mark it published
  ceoctl posts status <post-id> posted`,
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	Args:  cobra.NoArgs,
	RunE:  runPostsList,
}

var postsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a post",
	Args:  cobra.NoArgs,
	RunE:  runPostsAdd,
}

var postsStatusCmd = &cobra.Command{
	Use:       "status <post-id> <scheduled|posted|open>",
	Short:     "Change a post's status",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(model.PostScheduled), string(model.PostPosted), string(model.PostOpen)},
	RunE:      runPostsStatus,
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <post-id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE:  runPostsDelete,
}

func runPostsList(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var posts []model.LinkedInPost
	if postStatus != "" {
		posts, err = c.PostsByStatus(ctx, postStatus)
	} else {
		posts, err = c.ListPosts(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}
	return renderPosts(cmd, posts)
}

func runPostsAdd(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	p, err := c.CreatePost(ctx, model.PostInput{
		Title:   postTitle,
		Content: postContent,
		Date:    postDate,
		Status:  postStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return renderPosts(cmd, []model.LinkedInPost{*p})
}

func runPostsStatus(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	p, err := c.UpdatePostStatus(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to update post status: %w", err)
	}
	return renderPosts(cmd, []model.LinkedInPost{*p})
}

func runPostsDelete(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := c.DeletePost(ctx, args[0]); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return renderDeleted(cmd, "LinkedIn post", args[0])
}

func renderPosts(cmd *cobra.Command, posts []model.LinkedInPost) error {
	return render(cmd, posts, func(p *printer) {
		if len(posts) == 0 {
			p.row("No posts found")
			return
		}
		p.row("ID", "DATE", "STATUS", "TITLE")
		for _, post := range posts {
			p.row(post.ID, post.Date.Format(time.DateOnly), string(post.Status), truncate(post.Title, 50))
		}
	})
}
