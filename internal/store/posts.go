package store

// PostView is a post with its author's username and comments resolved,
// the shape the community feed renders.
type PostView struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Author   string        `json:"author"`
	UserID   int64         `json:"user_id"`
	Comments []CommentView `json:"comments"`
}

type CommentView struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (s *Store) CreatePost(userID int64, title, content string) (*Post, error) {
	p := &Post{Title: title, Content: content, UserID: userID}
	if err := s.db.Create(p).Error; err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// CreateComment attaches a comment to a post. ErrNotFound when the post
// does not exist.
func (s *Store) CreateComment(userID, postID int64, content string) (*Comment, error) {
	var count int64
	if err := s.db.Model(&Post{}).Where("id = ?", postID).Count(&count).Error; err != nil {
		return nil, translate(err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	c := &Comment{Content: content, PostID: postID, UserID: userID}
	if err := s.db.Create(c).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// ListPosts returns every post newest first, with comments in posting
// order and usernames resolved.
func (s *Store) ListPosts() ([]PostView, error) {
	var posts []struct {
		ID      int64
		Title   string
		Content string
		UserID  int64
		Author  string
	}
	err := s.db.Table("posts").
		Select("posts.id, posts.title, posts.content, posts.user_id, users.username AS author").
		Joins("JOIN users ON users.id = posts.user_id").
		Order("posts.id DESC").
		Scan(&posts).Error
	if err != nil {
		return nil, translate(err)
	}

	var comments []struct {
		ID      int64
		Content string
		PostID  int64
		Author  string
	}
	err = s.db.Table("comments").
		Select("comments.id, comments.content, comments.post_id, users.username AS author").
		Joins("LEFT JOIN users ON users.id = comments.user_id").
		Order("comments.id ASC").
		Scan(&comments).Error
	if err != nil {
		return nil, translate(err)
	}

	byPost := make(map[int64][]CommentView)
	for _, c := range comments {
		byPost[c.PostID] = append(byPost[c.PostID], CommentView{ID: c.ID, Content: c.Content, Author: c.Author})
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		cs := byPost[p.ID]
		if cs == nil {
			cs = []CommentView{}
		}
		views = append(views, PostView{
			ID:       p.ID,
			Title:    p.Title,
			Content:  p.Content,
			Author:   p.Author,
			UserID:   p.UserID,
			Comments: cs,
		})
	}
	return views, nil
}
