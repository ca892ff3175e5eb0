package values

var firstNames = []string{
	"Ada", "Alan", "Barbara", "Claude", "Dennis", "Donald", "Edsger", "Frances",
	"Grace", "Hedy", "John", "Katherine", "Ken", "Leslie", "Linus", "Margaret",
	"Niklaus", "Radia", "Rob", "Sophie", "Tim", "Vint",
}

var lastNames = []string{
	"Allen", "Berners-Lee", "Cerf", "Dijkstra", "Hamilton", "Hopper", "Johnson",
	"Kernighan", "Knuth", "Lamarr", "Lamport", "Liskov", "Lovelace", "McCarthy",
	"Perlman", "Pike", "Ritchie", "Shannon", "Thompson", "Torvalds", "Turing", "Wirth",
}

var domains = []string{
	"google.com",
	"facebook.com",
	"twitter.com",
	"github.com",
	"stackoverflow.com",
	"reddit.com",
	"youtube.com",
	"linkedin.com",
	"amazon.com",
	"wikipedia.org",
}

var paths = []string{
	"",
	"/home",
	"/about",
	"/contact",
	"/products",
	"/api/v1",
	"/api/v2",
	"/docs",
	"/blog",
	"/search",
	"/user/profile",
	"/settings",
	"/help",
}

var params = []string{
	"",
	"?page=1",
	"?id=123",
	"?ref=homepage",
	"?utm_source=test",
	"?sort=desc",
}

var words = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore",
	"magna", "aliqua", "enim", "ad", "minim", "veniam", "quis", "nostrud",
	"exercitation", "ullamco", "laboris", "nisi", "aliquip", "ex", "ea", "commodo",
}
